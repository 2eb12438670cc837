package config

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// File holds defaults loaded from a TOML config file. Values given by flag
// or environment variable take precedence.
type File struct {
	AppleID  string `toml:"apple_id"`
	Dest     string `toml:"dest"`
	PageSize int    `toml:"page_size"`
	Timeout  string `toml:"timeout"`
}

// LoadFile reads a TOML config file
func LoadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", path))
	}

	var f File
	if err := toml.Unmarshal(raw, &f); err != nil {
		return nil, goerr.Wrap(err, "failed to parse config file", goerr.V("path", path))
	}

	if f.PageSize < 0 {
		return nil, goerr.New("page_size must not be negative", goerr.V("page_size", f.PageSize))
	}
	if f.Timeout != "" {
		if _, err := time.ParseDuration(f.Timeout); err != nil {
			return nil, goerr.Wrap(err, "invalid timeout in config file", goerr.V("timeout", f.Timeout))
		}
	}

	return &f, nil
}

// IsSet reports whether a flag was given explicitly
type IsSet func(name string) bool

// Apply copies file values into the configs for every flag not set explicitly
func (f *File) Apply(isSet IsSet, icloud *ICloud, dest *Destination) {
	if f.AppleID != "" && !isSet("apple-id") {
		icloud.AppleID = f.AppleID
	}
	if f.PageSize > 0 && !isSet("page-size") {
		icloud.PageSize = f.PageSize
	}
	if f.Timeout != "" && !isSet("timeout") {
		// validated in LoadFile
		d, _ := time.ParseDuration(f.Timeout)
		icloud.Timeout = d
	}
	if f.Dest != "" && !isSet("dest") {
		dest.Dest = f.Dest
	}
}

// FileFlag returns the flag selecting the config file
func FileFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "TOML config file with default settings",
		Destination: dst,
		Sources:     cli.EnvVars("ICLOUDPULL_CONFIG"),
	}
}
