package cppmodel

import (
	"github.com/jward/cppmodel/internal/config"
	"github.com/jward/cppmodel/internal/sema"
)

// Public type aliases for the internal types that appear in the Engine and
// QueryBuilder API.

type Model = sema.Model
type Entity = sema.Entity
type Lexicon = sema.Lexicon
type Kind = sema.Kind
type TypeExpression = sema.TypeExpression
type Config = config.Config
type StructuralError = sema.StructuralError
type AmbiguityError = sema.AmbiguityError

// LoadConfig reads a .cppmodel.yaml file.
func LoadConfig(path string) (*Config, error) { return config.Load(path) }

// DiscoverConfig loads .cppmodel.yaml from root, or an empty config when
// there is none.
func DiscoverConfig(root string) (*Config, error) { return config.Discover(root) }

// IsStructural reports whether err is a per-declaration problem that
// extraction logs and skips.
func IsStructural(err error) bool { return sema.IsStructural(err) }

// IsAmbiguity reports whether err is an ambiguity that abandons a
// translation unit.
func IsAmbiguity(err error) bool { return sema.IsAmbiguity(err) }
