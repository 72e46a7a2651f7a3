package store

import (
	"log/slog"

	"golang.org/x/text/language"
)

// DefaultLanguage is the language used when none is given explicitly,
// e.g. by Item.AddFieldValue.
const DefaultLanguage = "en"

// DefaultDatabase is the database name used by DefaultConfig.
const DefaultDatabase = "master"

// CoreDatabase names the database that additionally holds the field type
// definitions root.
const CoreDatabase = "core"

// Config holds configuration for a Storage.
type Config struct {
	// Name is the database name the storage stands in for.
	// Default: "master"
	Name string

	// DefaultLanguage receives the automatic first version of newly
	// registered items. Must be a BCP 47 tag.
	// Default: "en"
	DefaultLanguage string

	// Logger receives debug traces of registrations and template
	// synthesis. Default: slog.Default()
	Logger *slog.Logger
}

// DefaultConfig returns a configuration for the "master" database.
func DefaultConfig() Config {
	return Config{
		Name:            DefaultDatabase,
		DefaultLanguage: DefaultLanguage,
	}
}

// validate fills in defaults for unset or unusable values.
func (c *Config) validate() {
	if c.Name == "" {
		c.Name = DefaultDatabase
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = DefaultLanguage
	} else if _, err := language.Parse(c.DefaultLanguage); err != nil {
		c.DefaultLanguage = DefaultLanguage
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
