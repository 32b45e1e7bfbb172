// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package framegraph

import (
	"fmt"

	"github.com/gogpu/framegraph/name"
)

// MultipleBackBufferWritesError reports two passes writing the swap-
// chain image in one frame. The schedule assumes a single back-buffer
// node; more than one is rejected rather than guessed at.
type MultipleBackBufferWritesError struct {
	First  name.Name
	Second name.Name
}

// Error implements the error interface.
func (e *MultipleBackBufferWritesError) Error() string {
	return fmt.Sprintf("framegraph: passes %d and %d both write the back buffer in one frame", e.First, e.Second)
}

// MissingWriterError reports a view read this frame that no pass
// writes.
type MissingWriterError struct {
	Pass     name.Name
	Resource name.Name
}

// Error implements the error interface.
func (e *MissingWriterError) Error() string {
	return fmt.Sprintf("framegraph: pass %d reads resource %d that has no writer this frame", e.Pass, e.Resource)
}
