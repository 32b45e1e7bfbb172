// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package task implements the process-wide worker pool driving pass
// recording and background pipeline work.
//
// Three priority classes exist, each with its own worker threads and
// per-thread queues:
//
//   - High: pass recording and critical-path work (cores-1 threads)
//   - Low: background asset and pipeline compilation (cores-2 threads)
//   - Streaming: single-threaded I/O
//
// Workers run a cooperative take-any protocol: a worker drains its own
// queue first, then steals from its siblings, then parks on the class
// condition variable. Wait participates in draining, so the caller
// never idles while its group has queued work.
//
// Worker panics are captured per group and re-raised on the next Wait
// for that group, on the waiting thread.
package task
