package config

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/classdoc/internal/foundation/errors"
)

// Validate checks the configuration for values the build can not work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Input) == "" {
		return errors.ValidationError("input class model path is required").Build()
	}
	if strings.TrimSpace(c.Output.Directory) == "" {
		return errors.ValidationError("output directory is required").Build()
	}
	if filepath.Clean(c.Output.Directory) == "/" {
		return errors.ValidationError("refusing to use the filesystem root as output directory").Build()
	}
	if _, ok := parseLogFormat(c.Logging.Format); !ok {
		return errors.ValidationError("unsupported log format").
			WithContext("format", c.Logging.Format).
			Build()
	}
	if c.Docset.Enabled && strings.ContainsAny(c.Docset.Filename, `/\`) {
		return errors.ValidationError("docset filename must not contain a path separator").
			WithContext("filename", c.Docset.Filename).
			Build()
	}
	seen := map[string]bool{}
	for _, extra := range c.Extras {
		if strings.TrimSpace(extra) == "" {
			return errors.ValidationError("extras entries must not be empty").Build()
		}
		if seen[extra] {
			return errors.ValidationError("duplicate extra file").WithContext("file", extra).Build()
		}
		seen[extra] = true
	}
	return nil
}
