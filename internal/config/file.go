package config

import (
	"fmt"
	"strings"
	"time"
)

// DomainConfig assigns custom base scores to hosts containing Match.
// Zero scores inherit the built-in defaults.
type DomainConfig struct {
	// Match is a case-insensitive substring of the hostname.
	Match string `yaml:"match"`

	Reader     int `yaml:"reader,omitempty"`
	AI         int `yaml:"ai,omitempty"`
	Structured int `yaml:"structured,omitempty"`
	WCAG       int `yaml:"wcag,omitempty"`
}

// Defaults holds settings that apply unless overridden by a CLI flag.
// Pointer fields distinguish "unset" from an explicit zero value.
type Defaults struct {
	DelayScale *float64      `yaml:"delayScale,omitempty"`
	Fetch      *bool         `yaml:"fetch,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
	BatchSize  int           `yaml:"batchSize,omitempty"`
	UserAgent  string        `yaml:"userAgent,omitempty"`
	RulesFile  string        `yaml:"rules,omitempty"`
	SaveToDB   *bool         `yaml:"saveToDB,omitempty"`
}

// ServerConfig holds settings for "surfacescore serve".
type ServerConfig struct {
	Listen     string        `yaml:"listen,omitempty"`
	SessionTTL time.Duration `yaml:"sessionTTL,omitempty"`
}

// File represents the structure of the .surfacescore configuration file.
type File struct {
	// Defaults are applied to every run.
	Defaults Defaults `yaml:"defaults,omitempty"`

	// Domains are checked in order before the built-in domain table.
	Domains []DomainConfig `yaml:"domains,omitempty"`

	// Server configures the HTTP API.
	Server ServerConfig `yaml:"server,omitempty"`
}

// Validate checks the domain entries. An entry without a match would
// capture every host, so it is rejected.
func (f *File) Validate() error {
	for i, d := range f.Domains {
		if strings.TrimSpace(d.Match) == "" {
			return fmt.Errorf("%w: domains[%d]", ErrEmptyDomainMatch, i)
		}
	}
	return nil
}

// Apply copies file settings into c. Settings whose flag the user set
// explicitly are left alone; changed reports whether a flag was set.
func (f *File) Apply(c *Config, changed func(flag string) bool) {
	if changed == nil {
		changed = func(string) bool { return false }
	}
	d := f.Defaults
	if d.DelayScale != nil && !changed("delay-scale") {
		c.DelayScale = *d.DelayScale
	}
	if d.Fetch != nil && !changed("fetch") {
		c.Fetch = *d.Fetch
	}
	if d.Timeout > 0 && !changed("timeout") {
		c.Timeout = d.Timeout
	}
	if d.BatchSize > 0 && !changed("batch") {
		c.BatchSize = d.BatchSize
	}
	if d.UserAgent != "" && !changed("user-agent") {
		c.UserAgent = d.UserAgent
	}
	if d.RulesFile != "" && !changed("rules") {
		c.RulesFile = d.RulesFile
	}
	if d.SaveToDB != nil && !changed("save") {
		c.SaveToDB = *d.SaveToDB
	}
	if f.Server.Listen != "" && !changed("listen") {
		c.ListenAddress = f.Server.Listen
	}
	if f.Server.SessionTTL > 0 && !changed("session-ttl") {
		c.SessionTTL = f.Server.SessionTTL
	}
	c.File = f
}
