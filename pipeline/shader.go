// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/gogpu/naga"

	"github.com/gogpu/framegraph/rhi"
	"github.com/gogpu/framegraph/task"
)

// includePattern matches `#include "file.wgsl"` lines, with or without
// a leading comment marker. WGSL has no native include; the
// preprocessor splices files textually and reports them as cache
// dependencies.
var includePattern = regexp.MustCompile(`^\s*(?://\s*)?#include\s+"([^"]+)"`)

type shaderEntry struct {
	done   chan struct{}
	shader rhi.Shader
	err    error
}

// ShaderManager loads and deduplicates shaders. Safe for concurrent
// use; identical requests share one compilation.
type ShaderManager struct {
	device    rhi.Device
	pool      *task.Pool
	group     *task.Group
	cache     *Cache
	shaderDir string

	mu      sync.Mutex
	shaders map[shaderKey]*shaderEntry
}

// NewShaderManager creates a shader manager. shaderDir is the root
// shader source paths are relative to; cache may be nil to disable
// persistence.
func NewShaderManager(device rhi.Device, pool *task.Pool, shaderDir string, cache *Cache) *ShaderManager {
	return &ShaderManager{
		device:    device,
		pool:      pool,
		group:     task.NewGroup(task.PriorityLow),
		cache:     cache,
		shaderDir: shaderDir,
		shaders:   make(map[shaderKey]*shaderEntry),
	}
}

// RequestShaderLoad queues an asynchronous load. Identical requests
// coalesce onto the first one. The result is picked up with Shader
// after WaitShaders.
func (m *ShaderManager) RequestShaderLoad(meta ShaderMetadata) {
	key := meta.key()

	m.mu.Lock()
	if _, ok := m.shaders[key]; ok {
		m.mu.Unlock()
		return
	}
	entry := &shaderEntry{done: make(chan struct{})}
	m.shaders[key] = entry
	m.mu.Unlock()

	m.pool.Execute(m.group, func(task.ExecutionInfo) {
		entry.shader, entry.err = m.compile(&meta)
		close(entry.done)
	})
}

// WaitShaders blocks until every queued load finishes.
func (m *ShaderManager) WaitShaders() {
	m.pool.Wait(m.group)
}

// Shader returns the loaded shader for the metadata, blocking until
// its compilation finishes if needed. Requests the load if nobody did.
func (m *ShaderManager) Shader(meta ShaderMetadata) (rhi.Shader, error) {
	key := meta.key()

	m.mu.Lock()
	entry, ok := m.shaders[key]
	m.mu.Unlock()
	if !ok {
		m.RequestShaderLoad(meta)
		m.mu.Lock()
		entry = m.shaders[key]
		m.mu.Unlock()
	}

	<-entry.done
	return entry.shader, entry.err
}

// Reload recompiles every loaded shader originating from the given
// source path, synchronously. Returns the first compile error; loaded
// entries keep their previous binaries on failure.
func (m *ShaderManager) Reload(path string) error {
	m.mu.Lock()
	var keys []shaderKey
	for key := range m.shaders {
		if key.path == path {
			keys = append(keys, key)
		}
	}
	m.mu.Unlock()

	for _, key := range keys {
		meta := ShaderMetadata{
			Path:       key.path,
			Type:       key.shaderType,
			EntryPoint: key.entryPoint,
		}
		if key.defines != "" {
			meta.Defines = strings.Split(key.defines, "\x00")
		}

		shader, err := m.compileFresh(&meta)
		if err != nil {
			return err
		}

		entry := &shaderEntry{done: make(chan struct{}), shader: shader}
		close(entry.done)
		m.mu.Lock()
		old := m.shaders[key]
		m.shaders[key] = entry
		m.mu.Unlock()
		if old != nil && old.shader != nil {
			m.device.DestroyShader(old.shader)
		}
	}
	return nil
}

// Shutdown destroys every loaded shader module.
func (m *ShaderManager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, entry := range m.shaders {
		select {
		case <-entry.done:
			if entry.shader != nil {
				m.device.DestroyShader(entry.shader)
			}
		default:
			// Still compiling; the caller must WaitShaders first.
		}
		delete(m.shaders, key)
	}
}

// compile loads from the cache when fresh, compiling otherwise.
func (m *ShaderManager) compile(meta *ShaderMetadata) (rhi.Shader, error) {
	absPath := m.resolve(meta.Path)

	if m.cache != nil {
		if spirv, ok := m.cache.Load(absPath); ok {
			return m.createShader(meta, spirv)
		}
	}
	return m.compileFresh(meta)
}

// compileFresh always compiles from source.
func (m *ShaderManager) compileFresh(meta *ShaderMetadata) (rhi.Shader, error) {
	absPath := m.resolve(meta.Path)

	source, deps, err := m.preprocess(absPath, meta.Defines)
	if err != nil {
		return nil, &ShaderCompileError{Path: meta.Path, Diagnostics: err.Error()}
	}

	spirv, err := naga.Compile(source)
	if err != nil {
		return nil, &ShaderCompileError{Path: meta.Path, Diagnostics: err.Error()}
	}

	if m.cache != nil {
		m.cache.Store(absPath, spirv, deps)
	}
	return m.createShader(meta, spirv)
}

func (m *ShaderManager) createShader(meta *ShaderMetadata, spirv []byte) (rhi.Shader, error) {
	shader, err := m.device.CreateShader(&rhi.ShaderDescriptor{
		Name:       meta.Path,
		SPIRV:      spirv,
		Type:       meta.Type,
		EntryPoint: meta.EntryPoint,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: creating shader module %s: %w", meta.Path, err)
	}
	return shader, nil
}

func (m *ShaderManager) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	abs, err := filepath.Abs(filepath.Join(m.shaderDir, path))
	if err != nil {
		return filepath.Join(m.shaderDir, path)
	}
	return abs
}

// preprocess reads a source file, prepends define directives and
// splices includes recursively. Returns the flattened source and the
// absolute paths of every file that went into it.
func (m *ShaderManager) preprocess(absPath string, defines []string) (string, []string, error) {
	var sb strings.Builder
	for _, def := range defines {
		// Defines surface to WGSL as const bools the source can
		// branch on.
		fmt.Fprintf(&sb, "const %s: bool = true;\n", def)
	}

	deps := []string{absPath}
	visited := map[string]bool{absPath: true}
	if err := m.splice(&sb, absPath, visited, &deps); err != nil {
		return "", nil, err
	}
	return sb.String(), deps, nil
}

func (m *ShaderManager) splice(sb *strings.Builder, absPath string, visited map[string]bool, deps *[]string) error {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return err
	}

	for _, line := range strings.SplitAfter(string(data), "\n") {
		match := includePattern.FindStringSubmatch(line)
		if match == nil {
			sb.WriteString(line)
			continue
		}

		incPath := filepath.Join(filepath.Dir(absPath), match[1])
		if visited[incPath] {
			continue
		}
		visited[incPath] = true
		*deps = append(*deps, incPath)
		if err := m.splice(sb, incPath, visited, deps); err != nil {
			return err
		}
	}
	return nil
}
