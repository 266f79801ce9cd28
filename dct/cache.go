/*
 * cache.go, part of dfdct.
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

package dct

import (
	"sync"
)

//Key names one MO B tensor: the orbital pair space and the spin.
type Key string

const (
	IJA Key = "ijA"
	IAA Key = "iaA"
	AIA Key = "aiA"
	ABA Key = "abA"
	PQA Key = "pqA"
	IJB Key = "ijB"
	IAB Key = "iaB"
	AIB Key = "aiB"
	ABB Key = "abB"
	PQB Key = "pqB"
)

//Spin returns the spin of the tensor.
func (k Key) Spin() Spin {
	if k[len(k)-1] == 'B' {
		return Beta
	}
	return Alpha
}

//Spaces returns the orbital spaces of the two indexes of the pair.
func (k Key) Spaces() (Space, Space) {
	sp := map[byte]Space{'i': Occ, 'j': Occ, 'a': Vir, 'b': Vir, 'p': All, 'q': All}
	return sp[k[0]], sp[k[1]]
}

//Alpha returns the alpha version of the key.
func (k Key) Alpha() Key { return k[:len(k)-1] + "A" }

//TensorCache holds computed tensors, by key, until it is invalidated.
//It is safe for concurrent use, but a given key is computed by only one caller at a time.
type TensorCache[T any] struct {
	mu      sync.Mutex
	entries map[Key]T
}

//NewTensorCache returns an empty cache.
func NewTensorCache[T any]() *TensorCache[T] {
	return &TensorCache[T]{entries: make(map[Key]T)}
}

//Get returns the tensor for k, if cached.
func (C *TensorCache[T]) Get(k Key) (T, bool) {
	C.mu.Lock()
	defer C.mu.Unlock()
	v, ok := C.entries[k]
	return v, ok
}

//GetOrCompute returns the cached tensor for k, or computes, caches and returns it.
//Errors are not cached. fn runs with the cache locked, so it must not use the cache.
func (C *TensorCache[T]) GetOrCompute(k Key, fn func() (T, error)) (T, error) {
	C.mu.Lock()
	defer C.mu.Unlock()
	if v, ok := C.entries[k]; ok {
		return v, nil
	}
	v, err := fn()
	if err != nil {
		return v, err
	}
	C.entries[k] = v
	return v, nil
}

//Invalidate drops every cached tensor.
func (C *TensorCache[T]) Invalidate() {
	C.mu.Lock()
	C.entries = make(map[Key]T)
	C.mu.Unlock()
}

//Len returns the number of cached tensors.
func (C *TensorCache[T]) Len() int {
	C.mu.Lock()
	defer C.mu.Unlock()
	return len(C.entries)
}
