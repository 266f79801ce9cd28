/*
 * inspect.go, part of dfdct.
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

package main

import (
	"io"

	"github.com/pkg/errors"
	"github.com/rmera/dfdct"
	"github.com/rmera/dfdct/store"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List the entries of a store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := prepare(cmd)
		if err != nil {
			return err
		}
		return inspect(cmd.OutOrStdout(), cfg.Store.Path)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var storeFiles = []struct {
	name string
	file store.File
}{
	{"density", dfdct.DensityFile},
	{"amplitude", dfdct.AmplitudeFile},
	{"integral", dfdct.IntegralFile},
	{"ao-tpdm", dfdct.AOTPDMFile},
}

type fileListing struct {
	File    string          `yaml:"file"`
	Entries []*store.Header `yaml:"entries"`
}

//inspect writes, as YAML, the headers of every entry of the store at path.
func inspect(w io.Writer, path string) error {
	st, err := store.Open(path, store.Options{})
	if err != nil {
		return err
	}
	defer st.Close()
	var listing []fileListing
	for _, f := range storeFiles {
		names, err := st.Names(f.file)
		if err != nil {
			return err
		}
		l := fileListing{File: f.name}
		for _, n := range names {
			H, err := st.Header(f.file, n)
			if err != nil {
				return errors.Wrapf(err, "%s file", f.name)
			}
			l.Entries = append(l.Entries, H)
		}
		listing = append(listing, l)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(listing); err != nil {
		return err
	}
	return enc.Close()
}
