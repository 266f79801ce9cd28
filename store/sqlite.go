/*
 * sqlite.go, part of dfdct.
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
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id     TEXT PRIMARY KEY,
		opened TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS headers (
		file    INTEGER NOT NULL,
		name    TEXT NOT NULL,
		header  BLOB NOT NULL,
		session TEXT NOT NULL,
		PRIMARY KEY (file, name)
	)`,
	`CREATE TABLE IF NOT EXISTS blocks (
		file  INTEGER NOT NULL,
		name  TEXT NOT NULL,
		block INTEGER NOT NULL,
		data  BLOB NOT NULL,
		PRIMARY KEY (file, name, block)
	)`,
}

//SQLite is a Backend on a SQLite database, which lets the stored quantities
//outlive the process. The path ":memory:" gives a private in-memory database.
type SQLite struct {
	db      *sql.DB
	session string
}

//OpenSQLite opens, or creates, the database at path, and registers a new session in it.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening store database")
	}
	pragmas := []string{"PRAGMA busy_timeout=5000", "PRAGMA synchronous=NORMAL"}
	if path == ":memory:" {
		//every connection would get its own database
		db.SetMaxOpenConns(1)
	} else {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "setting %s", p)
		}
	}
	for _, t := range schema {
		if _, err := db.Exec(t); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "creating store schema")
		}
	}
	S := &SQLite{db: db, session: uuid.NewString()}
	if _, err := db.Exec(`INSERT INTO sessions (id, opened) VALUES (?, ?)`, S.session, time.Now().UTC().Format(time.RFC3339)); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "registering session")
	}
	return S, nil
}

//Session returns the id of the session that opened the database.
func (S *SQLite) Session() string { return S.session }

func (S *SQLite) PutHeader(file File, name string, header []byte) error {
	_, err := S.db.Exec(`INSERT INTO headers (file, name, header, session) VALUES (?, ?, ?, ?)
		ON CONFLICT (file, name) DO UPDATE SET header = excluded.header, session = excluded.session`,
		int(file), name, header, S.session)
	return errors.Wrapf(err, "writing header of %q", name)
}

func (S *SQLite) Header(file File, name string) ([]byte, error) {
	var h []byte
	err := S.db.QueryRow(`SELECT header FROM headers WHERE file = ? AND name = ?`, int(file), name).Scan(&h)
	if err == sql.ErrNoRows {
		return nil, errorf(ErrNotFound, "file %d, %q", file, name)
	}
	return h, errors.Wrapf(err, "reading header of %q", name)
}

func (S *SQLite) PutBlock(file File, name string, block int, data []byte) error {
	_, err := S.db.Exec(`INSERT INTO blocks (file, name, block, data) VALUES (?, ?, ?, ?)
		ON CONFLICT (file, name, block) DO UPDATE SET data = excluded.data`,
		int(file), name, block, data)
	return errors.Wrapf(err, "writing block %d of %q", block, name)
}

func (S *SQLite) Block(file File, name string, block int) ([]byte, error) {
	var d []byte
	err := S.db.QueryRow(`SELECT data FROM blocks WHERE file = ? AND name = ? AND block = ?`, int(file), name, block).Scan(&d)
	if err == sql.ErrNoRows {
		return nil, errorf(ErrNotFound, "file %d, %q, block %d", file, name, block)
	}
	return d, errors.Wrapf(err, "reading block %d of %q", block, name)
}

func (S *SQLite) Remove(file File, name string) error {
	tx, err := S.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM blocks WHERE file = ? AND name = ?`, int(file), name); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.Exec(`DELETE FROM headers WHERE file = ? AND name = ?`, int(file), name); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (S *SQLite) Names(file File) ([]string, error) {
	rows, err := S.db.Query(`SELECT name FROM headers WHERE file = ? ORDER BY name`, int(file))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var r []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		r = append(r, n)
	}
	return r, rows.Err()
}

func (S *SQLite) Close() error {
	return S.db.Close()
}
