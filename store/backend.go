/*
 * backend.go, part of dfdct.
 *
 * Copyright 2024 The dfdct Authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package store

import (
	"sort"
	"sync"
)

//Backend is where the store keeps its entries. Each entry has a header and one
//blob per block. Backends must be safe for concurrent use.
type Backend interface {
	PutHeader(file File, name string, header []byte) error
	Header(file File, name string) ([]byte, error) //errors wrap ErrNotFound for missing entries
	PutBlock(file File, name string, block int, data []byte) error
	Block(file File, name string, block int) ([]byte, error) //errors wrap ErrNotFound for missing blocks
	Remove(file File, name string) error
	Names(file File) ([]string, error)
	Close() error
}

type entryKey struct {
	file File
	name string
}

type memEntry struct {
	header []byte
	blocks map[int][]byte
}

//Memory is a Backend that keeps everything in RAM.
type Memory struct {
	mu      sync.RWMutex
	entries map[entryKey]*memEntry
}

//NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{entries: make(map[entryKey]*memEntry)}
}

func (M *Memory) PutHeader(file File, name string, header []byte) error {
	M.mu.Lock()
	defer M.mu.Unlock()
	k := entryKey{file, name}
	e, ok := M.entries[k]
	if !ok {
		e = &memEntry{blocks: make(map[int][]byte)}
		M.entries[k] = e
	}
	e.header = append([]byte(nil), header...)
	return nil
}

func (M *Memory) Header(file File, name string) ([]byte, error) {
	M.mu.RLock()
	defer M.mu.RUnlock()
	e, ok := M.entries[entryKey{file, name}]
	if !ok {
		return nil, errorf(ErrNotFound, "file %d, %q", file, name)
	}
	return e.header, nil
}

func (M *Memory) PutBlock(file File, name string, block int, data []byte) error {
	M.mu.Lock()
	defer M.mu.Unlock()
	e, ok := M.entries[entryKey{file, name}]
	if !ok {
		return errorf(ErrNotFound, "file %d, %q has no header", file, name)
	}
	e.blocks[block] = data
	return nil
}

func (M *Memory) Block(file File, name string, block int) ([]byte, error) {
	M.mu.RLock()
	defer M.mu.RUnlock()
	e, ok := M.entries[entryKey{file, name}]
	if !ok {
		return nil, errorf(ErrNotFound, "file %d, %q", file, name)
	}
	b, ok := e.blocks[block]
	if !ok {
		return nil, errorf(ErrNotFound, "file %d, %q, block %d", file, name, block)
	}
	return b, nil
}

func (M *Memory) Remove(file File, name string) error {
	M.mu.Lock()
	defer M.mu.Unlock()
	delete(M.entries, entryKey{file, name})
	return nil
}

func (M *Memory) Names(file File) ([]string, error) {
	M.mu.RLock()
	defer M.mu.RUnlock()
	var r []string
	for k := range M.entries {
		if k.file == file {
			r = append(r, k.name)
		}
	}
	sort.Strings(r)
	return r, nil
}

func (M *Memory) Close() error {
	M.mu.Lock()
	M.entries = nil
	M.mu.Unlock()
	return nil
}
