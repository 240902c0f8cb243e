// Package config loads the optional .cppmodel.yaml project file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the project file looked up in the indexed root.
const FileName = ".cppmodel.yaml"

// Config is the project configuration. Zero values mean "use the default".
type Config struct {
	// Extensions lists the source file extensions to index, with the dot.
	Extensions []string `yaml:"extensions"`
	// Exclude holds gitignore-style patterns relative to the root.
	Exclude []string `yaml:"exclude"`
	// BasicTypes are extra names that resolve as intrinsic scalars.
	BasicTypes []string `yaml:"basic_types"`
	// Scripts are Risor hooks run after indexing, relative to the file.
	Scripts []string `yaml:"scripts"`
	// Database is the snapshot path written by "index --db".
	Database string `yaml:"database"`
	// Strict aborts indexing on the first ambiguity error.
	Strict bool `yaml:"strict"`

	dir string
}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	c.dir = filepath.Dir(path)
	return c, nil
}

// Discover loads FileName from root. A missing file is an empty config.
func Discover(root string) (*Config, error) {
	c, err := Load(filepath.Join(root, FileName))
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{dir: root}, nil
	}
	return c, err
}

// Parse decodes YAML. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := c.normalize(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) normalize() error {
	for i, ext := range c.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" || ext == "." {
			return fmt.Errorf("empty extension at index %d", i)
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Extensions[i] = ext
	}
	for i, name := range c.BasicTypes {
		c.BasicTypes[i] = strings.Join(strings.Fields(name), " ")
	}
	return nil
}

// ScriptPaths returns Scripts resolved against the config file's directory.
func (c *Config) ScriptPaths() []string {
	out := make([]string, 0, len(c.Scripts))
	for _, s := range c.Scripts {
		if !filepath.IsAbs(s) && c.dir != "" {
			s = filepath.Join(c.dir, s)
		}
		out = append(out, s)
	}
	return out
}

// DatabasePath returns Database resolved against the config file's
// directory, or "" when unset.
func (c *Config) DatabasePath() string {
	if c.Database == "" || filepath.IsAbs(c.Database) || c.dir == "" {
		return c.Database
	}
	return filepath.Join(c.dir, c.Database)
}
