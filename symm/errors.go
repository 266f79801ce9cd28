/*
 * errors.go, part of dfdct.
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

package symm

import (
	"fmt"
)

//Errors

//Error is the error type returned by this package. It satisfies dfdct.Error.
//The kind is one of the PanicMsg constants below, and errors.Is can be used
//to test for it.
type Error struct {
	message  string
	kind     PanicMsg
	deco     []string
	critical bool
}

//Error returns a string with an error message.
func (err *Error) Error() string {
	return fmt.Sprintf("%s: %s", err.kind, err.message)
}

//Unwrap returns the kind of the error, so errors.Is(err, ErrShape) works.
func (err *Error) Unwrap() error { return err.kind }

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice. An empty string just returns the current slice.
func (err *Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Critical return whether the error is critical or it can be ignored.
//All the errors produced by this package are critical.
func (err *Error) Critical() bool { return err.critical }

//Errorf builds a critical *Error of the given kind. caller is used as the
//first decoration.
func Errorf(kind PanicMsg, caller string, format string, a ...interface{}) error {
	return &Error{message: fmt.Sprintf(format, a...), kind: kind, deco: []string{caller}, critical: true}
}

//errDecorate adds the caller to the decoration of err, if err is one of ours.
//Other errors are returned unchanged.
func errDecorate(err error, caller string) error {
	if err2, ok := err.(*Error); ok {
		err2.Decorate(caller)
		return err2
	}
	return err
}

//PanicMsg is a message used for panics, even though it does satisfy the error interface.
//It is also used as the kind of an *Error, which is what the functions
//return in most cases.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrShape       = PanicMsg("dfdct/symm: Dimension mismatch")
	ErrSymmetry    = PanicMsg("dfdct/symm: Unsupported symmetry")
	ErrPermutation = PanicMsg("dfdct/symm: Invalid index permutation")
	ErrIndex       = PanicMsg("dfdct/symm: index out of range")
)
