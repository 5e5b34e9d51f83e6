// Package catalog provides the Go definitions of software catalog records and a
// Redis-backed store that publishes them for a single resource.
//
// A record describes one installed software package version discovered from an
// environment-module file. Records are referenced by handles of the form
// "name/version", the identifier users type into `module load`.
//
// All Redis keys and channels are namespaced by resource name so that several
// clusters can publish into one Redis server.
package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultValidity is how long a published record stays valid when no validity
// is configured.
const DefaultValidity = 7 * 24 * time.Hour

// Record is the metadata extracted from one accepted module file.
// A record corresponds to exactly one filesystem path but never stores it;
// PathHash is the only trace of where it came from.
type Record struct {
	ID                     string        `json:"id"`                                 // UUIDv5 of the absolute module file path
	Name                   string        `json:"name"`                               // Canonical application name
	SpecifiedName          string        `json:"specified_name,omitempty"`           // Name given by an explicit Name directive
	Version                string        `json:"version,omitempty"`                  // Application version, never carries a dialect suffix
	Description            string        `json:"description,omitempty"`              // Explicit or inferred description
	Repository             string        `json:"repository,omitempty"`               // Project URL
	Keywords               []string      `json:"keywords"`                           // Ordered keyword list
	Extension              Extension     `json:"extension"`                          // Secondary fields
	PathHash               string        `json:"path_hash"`                          // MD5 hex of the absolute module file path
	Validity               time.Duration `json:"validity"`                           // How long the record stays valid once published
	ResourceName           string        `json:"resource_name"`                      // Cluster/resource that owns the module tree
	ExecutionEnvironmentID string        `json:"execution_environment_id,omitempty"` // URN of the execution environment
	CreatedAtMs            int64         `json:"created_at_ms"`                      // Unix milliseconds when the record was built
}

// Extension holds the secondary metadata fields of a record.
// Every field is optional; empty values mean the module file did not set them.
type Extension struct {
	Categories     []string `json:"categories"`
	SupportStatus  string   `json:"support_status,omitempty"`
	SupportContact string   `json:"support_contact,omitempty"`
	Default        string   `json:"default,omitempty"`
}

// HandleKind identifies how a handle is resolved by users.
type HandleKind string

const (
	// HandleKindModule is a handle loaded through the environment-module system.
	HandleKindModule HandleKind = "module"
)

// Handle references a record in the published catalog.
type Handle struct {
	Kind  HandleKind `json:"kind"`
	Value string     `json:"value"`
}

// ModuleHandle returns the module handle for a name and an optional version.
// An empty version produces a bare-name handle.
func ModuleHandle(name, version string) Handle {
	value := name
	if version != "" {
		value = name + "/" + version
	}
	return Handle{Kind: HandleKindModule, Value: value}
}

// Entry pairs a record with the handles that reference it.
type Entry struct {
	Record  *Record  `json:"record"`
	Handles []Handle `json:"handles"`
}

// Validate checks that a record is complete enough to publish.
func (r *Record) Validate() error {
	if _, err := uuid.Parse(r.ID); err != nil {
		return fmt.Errorf("id must be a valid UUID: %w", err)
	}
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.PathHash == "" {
		return fmt.Errorf("path_hash is required")
	}
	if r.ResourceName == "" {
		return fmt.Errorf("resource_name is required")
	}
	if r.Validity < 0 {
		return fmt.Errorf("validity must be >= 0, got %s", r.Validity)
	}
	return nil
}

// Handle returns the module handle for the record.
func (r *Record) Handle() Handle {
	return ModuleHandle(r.Name, r.Version)
}

// Validate checks that a handle has a known kind and a value.
func (h Handle) Validate() error {
	if h.Kind != HandleKindModule {
		return fmt.Errorf("invalid handle kind: %q", h.Kind)
	}
	if h.Value == "" {
		return fmt.Errorf("handle value is required")
	}
	return nil
}
