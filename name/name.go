// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package name provides interned string names with stable numeric ids.
//
// Resources, passes and pipelines are identified by Name everywhere in
// the core; comparing and hashing names is integer work, and the view
// encoding of the graph compiler packs a name id and a view index into
// one 64-bit key. Ids are assigned monotonically per Table, so sorted
// id order is creation order.
package name

import "sync"

// Name is an interned string id. The zero value is Nil and never
// returned by Intern.
type Name uint32

// Nil is the invalid name.
const Nil Name = 0

// IsValid reports whether the name was produced by a Table.
func (n Name) IsValid() bool {
	return n != Nil
}

// Table interns strings to monotonically assigned ids. Safe for
// concurrent use. There are no package-level tables: every owner (the
// renderer, a test fixture) creates its own and passes it down.
type Table struct {
	mu   sync.RWMutex
	ids  map[string]Name
	strs []string
}

// NewTable creates an empty intern table.
func NewTable() *Table {
	return &Table{
		ids: make(map[string]Name, 64),
		// Index 0 is reserved for Nil.
		strs: make([]string, 1, 64),
	}
}

// Intern returns the id for s, assigning the next id on first use.
func (t *Table) Intern(s string) Name {
	t.mu.RLock()
	n, ok := t.ids[s]
	t.mu.RUnlock()
	if ok {
		return n
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if n, ok := t.ids[s]; ok {
		return n
	}
	n = Name(len(t.strs))
	t.ids[s] = n
	t.strs = append(t.strs, s)
	return n
}

// Lookup returns the id for s without interning.
func (t *Table) Lookup(s string) (Name, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.ids[s]
	return n, ok
}

// String returns the string for n, or "" for Nil and unknown ids.
func (t *Table) String(n Name) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(n) >= len(t.strs) {
		return ""
	}
	return t.strs[n]
}

// Len returns the number of interned names.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.strs) - 1
}
