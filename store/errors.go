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

package store

import "fmt"

//Error is the error type returned by this package. It satisfies dfdct.Error.
//errors.Is(err, ErrNotFound) and the like work on it.
type Error struct {
	message  string
	kind     PanicMsg
	deco     []string
	critical bool
}

func (err *Error) Error() string {
	return fmt.Sprintf("%s: %s", err.kind, err.message)
}

//Unwrap returns the kind of the error.
func (err *Error) Unwrap() error { return err.kind }

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice. An empty string just returns the current slice.
func (err *Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Critical returns whether the error is critical. Only missing entries are not.
func (err *Error) Critical() bool { return err.critical }

func errorf(kind PanicMsg, format string, a ...interface{}) error {
	return &Error{message: fmt.Sprintf(format, a...), kind: kind, critical: kind != ErrNotFound}
}

//PanicMsg is the kind of an *Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNotFound = PanicMsg("dfdct/store: entry not found")
	ErrShape    = PanicMsg("dfdct/store: stored shape does not match")
	ErrBusy     = PanicMsg("dfdct/store: entry already open")
	ErrLayout   = PanicMsg("dfdct/store: layout not valid for this matrix")
)
