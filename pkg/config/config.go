// Package config loads CLI settings from ini profile stanzas.
package config

import (
	"log/slog"
	"os"
	"os/user"
	"path"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"

	"github.com/bisegni/rowtree/pkg/shape"
)

const DefaultConfigFile = "~/.rowtree/config"
const DefaultConfigProfile = "default"

type Config struct {
	Pretty    bool
	Separator string
	KeySuffix string
	LogLevel  string
}

// Default returns the settings used when no config file is present.
func Default() Config {
	return Config{Separator: "_", KeySuffix: "key", LogLevel: "warn"}
}

// Mapping is the column naming the settings describe.
func (c Config) Mapping() shape.Mapping {
	return shape.Naming{Separator: c.Separator, KeySuffix: c.KeySuffix}
}

// Level parses LogLevel. Unknown levels are an error.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelWarn, errors.Wrapf(err, "bad log_level '%s'", c.LogLevel)
	}
	return level, nil
}

// Expand the given file path if it start with a ~/
func expandUser(fname string) (string, error) {
	if strings.HasPrefix(fname, "~/") {
		usr, err := user.Current()
		if err != nil {
			return "", err
		}
		return path.Join(usr.HomeDir, fname[2:]), nil
	}
	return fname, nil
}

// Load the named stanza from the source.
// Source can be either filename or config bytes
func loadStanza(source interface{}, profile string) (*ini.Section, error) {
	info, err := ini.Load(source)
	if err != nil {
		return nil, errors.Wrapf(err, "error loading config")
	}
	if !info.HasSection(profile) {
		return nil, errors.Errorf("config profile '%s' not found", profile)
	}
	return info.Section(profile), nil
}

func parseConfigStanza(stanza *ini.Section, cfg *Config) error {
	if stanza.HasKey("pretty") {
		pretty, err := stanza.Key("pretty").Bool()
		if err != nil {
			return errors.Wrapf(err, "bad value for pretty")
		}
		cfg.Pretty = pretty
	}
	if v := stanza.Key("separator").String(); v != "" {
		cfg.Separator = v
	}
	if v := stanza.Key("key_suffix").String(); v != "" {
		cfg.KeySuffix = v
	}
	if v := stanza.Key("log_level").String(); v != "" {
		cfg.LogLevel = v
		if _, err := cfg.Level(); err != nil {
			return err
		}
	}
	return nil
}

// LoadConfig reads the given profile of the default config file. A missing
// default file leaves cfg untouched.
func LoadConfig(profile string, cfg *Config) error {
	fname, err := expandUser(DefaultConfigFile)
	if err != nil {
		return err
	}
	if _, err := os.Stat(fname); errors.Is(err, os.ErrNotExist) {
		if profile != DefaultConfigProfile {
			return errors.Errorf("config profile '%s' not found", profile)
		}
		return nil
	}
	return LoadConfigFile(fname, profile, cfg)
}

// Load settings from the given profile of the provided config source.
func LoadConfigString(source, profile string, cfg *Config) error {
	stanza, err := loadStanza([]byte(source), profile)
	if err != nil {
		return err
	}
	return parseConfigStanza(stanza, cfg)
}

// Load settings from the given profile of the named config file.
func LoadConfigFile(fname, profile string, cfg *Config) error {
	fname, err := expandUser(fname)
	if err != nil {
		return err
	}
	stanza, err := loadStanza(fname, profile)
	if err != nil {
		return err
	}
	return parseConfigStanza(stanza, cfg)
}
