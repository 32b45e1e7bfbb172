// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build !linux

package task

// pinThread is a no-op on platforms without a portable affinity API.
func pinThread(int) {}
