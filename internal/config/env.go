package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Keys that can be overridden from the environment (MODCAT_<KEY>) or from
// command-line flags bound into the same viper instance.
var overrideKeys = []string{
	"module_path",
	"strategy",
	"exclude",
	"default_support_contact",
	"recurse_module_dirs",
	"ignore_toplevel_modulefiles",
	"validity",
	"resource_name",
	"urn_prefix",
	"redis_url",
}

// envModulePathKey is the viper key bound to the environment-modules MODULEPATH variable.
const envModulePathKey = "environment_modulepath"

// NewViper returns a viper instance reading MODCAT_* environment variables and MODULEPATH.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("MODCAT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv(envModulePathKey, "MODULEPATH")
	return v
}

// Resolve builds the effective configuration.
//
// Precedence, highest first: flags bound into v, MODCAT_* environment variables,
// the configuration file at path, and finally MODULEPATH for the search path.
// An empty path means no configuration file; a missing file at the default
// location is not an error when optional is true.
func Resolve(v *viper.Viper, path string, optional bool) (*Config, error) {
	config := &Config{}
	if path != "" {
		loaded, err := decodeFile(path)
		switch {
		case err == nil:
			config = loaded
		case optional && errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}

	for _, key := range overrideKeys {
		if !v.IsSet(key) {
			continue
		}
		switch key {
		case "module_path":
			config.ModulePath = v.GetString(key)
		case "strategy":
			config.Strategy = Strategy(v.GetString(key))
		case "exclude":
			config.Exclude = v.GetString(key)
		case "default_support_contact":
			config.DefaultSupportContact = v.GetString(key)
		case "recurse_module_dirs":
			config.RecurseModuleDirs = v.GetBool(key)
		case "ignore_toplevel_modulefiles":
			config.IgnoreToplevelModulefiles = v.GetBool(key)
		case "validity":
			config.Validity = v.GetString(key)
		case "resource_name":
			config.ResourceName = v.GetString(key)
		case "urn_prefix":
			config.URNPrefix = v.GetString(key)
		case "redis_url":
			config.RedisURL = v.GetString(key)
		}
	}

	if config.ModulePath == "" {
		config.ModulePath = v.GetString(envModulePathKey)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}
