// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/gogpu/framegraph/rhi"
)

// cacheSidecar is the JSON metadata stored next to each compiled blob.
type cacheSidecar struct {
	// Dependencies holds the absolute paths of the source and every
	// include it pulls in.
	Dependencies []string `json:"dependencies"`
}

// Cache persists compiled shader binaries. Blobs are named after the
// source file; a sidecar records include dependencies so staleness
// checks cover the whole include closure.
//
// Writes happen on a background worker so compilation never blocks on
// disk; Close flushes outstanding writes.
type Cache struct {
	dir string

	writes  worker.DynamicWorkerPool
	pending sync.WaitGroup
	taskID  int
	mu      sync.Mutex
}

// NewCache opens (creating if needed) a cache directory.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{
		dir:    dir,
		writes: worker.NewDynamicWorkerPool(1, 64, time.Second),
	}, nil
}

func (c *Cache) blobPath(sourcePath string) string {
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	return filepath.Join(c.dir, stem+".spv")
}

func (c *Cache) sidecarPath(sourcePath string) string {
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	return filepath.Join(c.dir, stem+".json")
}

// Load returns the cached SPIR-V for a source file, or ok=false when
// the entry is missing or outdated (source or any dependency newer
// than the blob, or sidecar unreadable).
func (c *Cache) Load(sourcePath string) (spirv []byte, ok bool) {
	blobPath := c.blobPath(sourcePath)
	blobInfo, err := os.Stat(blobPath)
	if err != nil {
		return nil, false
	}

	sidecarData, err := os.ReadFile(c.sidecarPath(sourcePath))
	if err != nil {
		return nil, false
	}
	var sidecar cacheSidecar
	if err := json.Unmarshal(sidecarData, &sidecar); err != nil {
		rhi.Logger().Warn("corrupt shader cache sidecar", "path", c.sidecarPath(sourcePath))
		return nil, false
	}

	for _, dep := range sidecar.Dependencies {
		depInfo, err := os.Stat(dep)
		if err != nil || depInfo.ModTime().After(blobInfo.ModTime()) {
			return nil, false
		}
	}

	spirv, err = os.ReadFile(blobPath)
	if err != nil {
		return nil, false
	}
	return spirv, true
}

// Store queues the blob and its sidecar for background persistence.
// dependencies must hold absolute paths, source included.
func (c *Cache) Store(sourcePath string, spirv []byte, dependencies []string) {
	blobPath := c.blobPath(sourcePath)
	sidecarPath := c.sidecarPath(sourcePath)
	deps := append([]string(nil), dependencies...)
	data := append([]byte(nil), spirv...)

	c.mu.Lock()
	c.taskID++
	id := c.taskID
	c.mu.Unlock()

	c.pending.Add(1)
	c.writes.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			defer c.pending.Done()

			if err := os.WriteFile(blobPath, data, 0o644); err != nil {
				rhi.Logger().Warn("shader cache write failed", "path", blobPath, "err", err)
				return nil, err
			}
			sidecarData, err := json.Marshal(cacheSidecar{Dependencies: deps})
			if err != nil {
				return nil, err
			}
			if err := os.WriteFile(sidecarPath, sidecarData, 0o644); err != nil {
				rhi.Logger().Warn("shader cache write failed", "path", sidecarPath, "err", err)
				return nil, err
			}
			return nil, nil
		},
	})
}

// Close flushes outstanding writes.
func (c *Cache) Close() {
	c.pending.Wait()
}
