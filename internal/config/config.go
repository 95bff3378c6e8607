// Package config reads the optional pc.toml configuration file that
// supplies default file paths for the compiler's inputs and outputs.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultFileName is the config file looked for in the working directory
// when none is named on the command line.
const DefaultFileName = "pc.toml"

// File is the parsed configuration. Every field is optional; unset fields
// fall back to the compiled-in defaults and anything given on the command
// line overrides the file.
type File struct {
	// Regex is the default path of the regular-expression specification.
	Regex string `toml:"regex"`

	// CFG is the default path of the annotated BNF specification.
	CFG string `toml:"cfg"`

	// Source is the default path of the source program.
	Source string `toml:"source"`

	// Out is the default path the emitted three-address code is written to.
	// Empty means standard output.
	Out string `toml:"out"`

	// Decorations is the path of a regex spec that overrides the built-in
	// semantics token language.
	Decorations string `toml:"decorations"`
}

// Load reads and parses the named config file.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read config: %w", err)
	}
	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return f, nil
}

// LoadDefault reads pc.toml from the working directory if it exists. The
// second return reports whether a file was found at all.
func LoadDefault() (File, bool, error) {
	if _, err := os.Stat(DefaultFileName); err != nil {
		return File{}, false, nil
	}
	f, err := Load(DefaultFileName)
	if err != nil {
		return File{}, true, err
	}
	return f, true, nil
}

// Merge fills any unset field of c from other.
func (c File) Merge(other File) File {
	if c.Regex == "" {
		c.Regex = other.Regex
	}
	if c.CFG == "" {
		c.CFG = other.CFG
	}
	if c.Source == "" {
		c.Source = other.Source
	}
	if c.Out == "" {
		c.Out = other.Out
	}
	if c.Decorations == "" {
		c.Decorations = other.Decorations
	}
	return c
}
