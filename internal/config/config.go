package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dyluth/modcat/internal/timespec"
	"github.com/dyluth/modcat/pkg/catalog"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the configuration file looked up when --config is not given.
const DefaultFileName = "modcat.yml"

// ErrNoModulePath is returned when no module search path was configured.
// It aborts a scan before any traversal happens.
var ErrNoModulePath = errors.New("no module search path configured (set module_path or MODULEPATH)")

// Strategy selects how module roots are traversed.
type Strategy string

const (
	// StrategyFlat treats each immediate subdirectory of a root as a package
	// and every file inside it as a version.
	StrategyFlat Strategy = "flat"

	// StrategyRecursive splits each file's root-relative path at the first
	// separator into name and version.
	StrategyRecursive Strategy = "recursive"

	// StrategyWalk names files by their root-relative directory, or by their
	// parent directory when recurse_module_dirs is set.
	StrategyWalk Strategy = "walk"
)

// Config represents the modcat.yml (or modcat.toml) configuration
type Config struct {
	ModulePath                string   `yaml:"module_path" toml:"module_path"`                                 // Colon separated module search path
	Strategy                  Strategy `yaml:"strategy,omitempty" toml:"strategy"`                             // flat, recursive or walk (default)
	Exclude                   string   `yaml:"exclude,omitempty" toml:"exclude"`                               // Comma separated names to skip
	DefaultSupportContact     string   `yaml:"default_support_contact,omitempty" toml:"default_support_contact"` // Applied when a module file has none
	RecurseModuleDirs         bool     `yaml:"recurse_module_dirs,omitempty" toml:"recurse_module_dirs"`         // walk only: name = parent directory
	IgnoreToplevelModulefiles bool     `yaml:"ignore_toplevel_modulefiles,omitempty" toml:"ignore_toplevel_modulefiles"`
	Validity                  string   `yaml:"validity,omitempty" toml:"validity"`           // e.g. "168h", "7d", "1w"
	ResourceName              string   `yaml:"resource_name,omitempty" toml:"resource_name"` // Resource the catalog is published for
	URNPrefix                 string   `yaml:"urn_prefix,omitempty" toml:"urn_prefix"`
	RedisURL                  string   `yaml:"redis_url,omitempty" toml:"redis_url"`

	validity time.Duration
}

// ValidationError reports an invalid configuration field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validate checks the configuration and fills in defaults
func (c *Config) Validate() error {
	if c.Strategy == "" {
		c.Strategy = StrategyWalk
	}
	switch c.Strategy {
	case StrategyFlat, StrategyRecursive, StrategyWalk:
	default:
		return &ValidationError{
			Field:  "strategy",
			Reason: fmt.Sprintf("invalid strategy: %s (must be 'flat', 'recursive', or 'walk')", c.Strategy),
		}
	}

	if c.Strategy != StrategyWalk {
		if c.RecurseModuleDirs {
			return &ValidationError{Field: "recurse_module_dirs", Reason: "requires strategy 'walk'"}
		}
		if c.IgnoreToplevelModulefiles {
			return &ValidationError{Field: "ignore_toplevel_modulefiles", Reason: "requires strategy 'walk'"}
		}
	}

	if c.Validity == "" {
		c.validity = catalog.DefaultValidity
	} else {
		d, err := timespec.ParseDuration(c.Validity)
		if err != nil {
			return &ValidationError{Field: "validity", Reason: err.Error()}
		}
		c.validity = d
	}

	if c.ResourceName == "" {
		c.ResourceName = defaultResourceName()
	}

	if c.URNPrefix == "" {
		c.URNPrefix = "urn:glue2:"
	}

	return nil
}

// ValidityDuration returns the parsed validity. Only meaningful after Validate.
func (c *Config) ValidityDuration() time.Duration {
	return c.validity
}

// ExcludeNames returns the exclude list split on commas, trimmed, without empty names.
func (c *Config) ExcludeNames() []string {
	var names []string
	for _, name := range strings.Split(c.Exclude, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// ExecutionEnvironmentID returns the URN every record of this resource is attached to.
func (c *Config) ExecutionEnvironmentID() string {
	return c.URNPrefix + "ExecutionEnvironment:" + c.ResourceName
}

// ModulePaths splits the module search path into absolute, symlink-free roots.
// Empty segments are dropped and duplicates keep their first position.
// Returns ErrNoModulePath when nothing is configured.
func (c *Config) ModulePaths() ([]string, error) {
	if strings.TrimSpace(c.ModulePath) == "" {
		return nil, ErrNoModulePath
	}

	var roots []string
	seen := make(map[string]bool)
	for _, p := range filepath.SplitList(c.ModulePath) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve module path %q: %w", p, err)
		}

		// Missing roots stay in the list; traversal treats them as empty.
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}

		if seen[abs] {
			continue
		}
		seen[abs] = true
		roots = append(roots, abs)
	}

	if len(roots) == 0 {
		return nil, ErrNoModulePath
	}
	return roots, nil
}

// Load reads and validates a configuration file.
// Files ending in .toml are decoded as TOML, everything else as YAML.
func Load(path string) (*Config, error) {
	config, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func decodeFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	return &config, nil
}

func defaultResourceName() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "localhost"
}
