/*
 * config.go, part of dfdct.
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
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

//BasisConfig names the basis sets, from the built-in library or the one at Library.
type BasisConfig struct {
	Primary     string `mapstructure:"primary"`
	Correlation string `mapstructure:"correlation"`
	Reference   string `mapstructure:"reference"`
	Library     string `mapstructure:"library"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

//Config is the configuration of a calculation.
type Config struct {
	Molecule       string      `mapstructure:"molecule"`
	Charge         int         `mapstructure:"charge"`
	Multiplicity   int         `mapstructure:"multiplicity"`
	Reference      string      `mapstructure:"reference"`
	Basis          BasisConfig `mapstructure:"basis"`
	Symmetry       string      `mapstructure:"symmetry"`
	Threads        int         `mapstructure:"threads"`
	MemoryMB       float64     `mapstructure:"memory_mb"`
	Store          StoreConfig `mapstructure:"store"`
	Seed           uint64      `mapstructure:"seed"`
	SeedAmplitudes bool        `mapstructure:"seed_amplitudes"`
	Plot           string      `mapstructure:"plot"`
	Report         string      `mapstructure:"report"`
	LogLevel       string      `mapstructure:"log_level"`
}

var defaults = map[string]interface{}{
	"molecule":          "",
	"charge":            0,
	"multiplicity":      1,
	"reference":         "RHF",
	"basis.primary":     "s-min",
	"basis.correlation": "s-fit",
	"basis.reference":   "s-jkfit",
	"basis.library":     "",
	"symmetry":          "c1",
	"threads":           runtime.NumCPU(),
	"memory_mb":         500.0,
	"store.path":        ":memory:",
	"seed":              1,
	"seed_amplitudes":   true,
	"plot":              "",
	"report":            "",
	"log_level":         "info",
}

func setDefaults(v *viper.Viper) {
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
}

//flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"molecule":     "molecule",
	"charge":       "charge",
	"multiplicity": "multiplicity",
	"reference":    "reference",
	"symmetry":     "symmetry",
	"threads":      "threads",
	"memory-mb":    "memory_mb",
	"store":        "store.path",
	"seed":         "seed",
	"plot":         "plot",
	"report":       "report",
	"log-level":    "log_level",
}

func bindFlags(v *viper.Viper, f *pflag.FlagSet) error {
	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, f.Lookup(flag)); err != nil {
			return errors.Wrapf(err, "binding --%s", flag)
		}
	}
	return nil
}

//loadConfig reads the configuration file, if any, and the DFDCT_ environment variables
//into a Config. Without an explicit path, dfdct.yaml or dfdct.toml in the working
//directory is used when it exists.
func loadConfig(v *viper.Viper, path string) (Config, error) {
	var cfg Config
	v.SetEnvPrefix("DFDCT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("dfdct")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return cfg, errors.Wrap(err, "reading configuration")
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "decoding configuration")
	}
	if cfg.Threads < 1 {
		cfg.Threads = 1
	}
	return cfg, nil
}

func setupLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	switch strings.ToLower(level) {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}
