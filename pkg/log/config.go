// Copyright 2025 RPKI-viz Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"fmt"
	"io"

	"github.com/Arjun4522/RPKI-viz/private/config"
)

// Config is the configuration for the logger.
type Config struct {
	// Console is the configuration for the console logging.
	Console ConsoleConfig `toml:"console,omitempty"`
}

// InitDefaults populates unset fields in cfg to their default values (if they
// have one).
func (c *Config) InitDefaults() {
	c.Console.InitDefaults()
}

// Validate validates that the logging configuration is valid.
func (c *Config) Validate() error {
	if err := c.Console.validate(); err != nil {
		return err
	}
	return nil
}

// Sample writes the sample configuration to the dst writer.
func (c *Config) Sample(dst io.Writer, path config.Path, ctx config.CtxMap) {
	config.WriteSample(dst, path, ctx, &c.Console)
}

// ConfigName returns the name this config should have in a TOML file.
func (c *Config) ConfigName() string {
	return "log"
}

// ConsoleConfig is the config for the console logger.
type ConsoleConfig struct {
	// Level of console logging (defaults to info).
	Level string `toml:"level,omitempty"`
	// Format of the console logging (human|json).
	Format string `toml:"format,omitempty"`
	// StacktraceLevel sets from which level stacktraces are included in the
	// log (defaults to none).
	StacktraceLevel string `toml:"stacktrace_level,omitempty"`
	// DisableCaller stops annotating logs with the calling function's file
	// name and line number.
	DisableCaller bool `toml:"disable_caller,omitempty"`
}

// InitDefaults populates unset fields in cfg to their default values (if they
// have one).
func (c *ConsoleConfig) InitDefaults() {
	if c.Level == "" {
		c.Level = DefaultConsoleLevel
	}
	if c.Format == "" {
		c.Format = "human"
	}
	if c.StacktraceLevel == "" {
		c.StacktraceLevel = DefaultStacktraceLevel
	}
}

// Sample writes the sample configuration of the console logger to dst.
func (c *ConsoleConfig) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, loggingConsoleSample)
}

// ConfigName returns the name this config should have in a TOML file.
func (c *ConsoleConfig) ConfigName() string {
	return "console"
}

func (c *ConsoleConfig) validate() error {
	if _, err := parseLevel(c.Level); err != nil {
		return err
	}
	if c.Format != "human" && c.Format != "json" {
		return fmt.Errorf("unknown log format: %q", c.Format)
	}
	if c.StacktraceLevel != "none" {
		if _, err := parseLevel(c.StacktraceLevel); err != nil {
			return err
		}
	}
	return nil
}

const loggingConsoleSample = `
# Console logging level (debug|info|error) (default info)
level = "info"

# Console encoding (human|json) (default human)
format = "human"

# StacktraceLevel sets from which level stacktraces are included in the
# console log (none|debug|info|error) (default none)
stacktrace_level = "none"
`
