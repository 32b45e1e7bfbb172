// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package types defines plain data types shared between the frame graph
// core and RHI backends: texture and buffer descriptors, usage and
// layout flags, queue identifiers, and shader stage enums.
//
// The package has no dependencies and no behavior beyond small helper
// methods on the enum types. Everything here is passed by value.
package types
