package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Serialization helpers for converting between records and Redis hashes
//
// Scalar fields are stored as individual hash fields so they can be inspected
// with redis-cli. List fields and handles are JSON-encoded into single fields.

// RecordToHash converts a record and its handles to a Redis hash.
func RecordToHash(r *Record, handles []Handle) (map[string]interface{}, error) {
	keywordsJSON, err := json.Marshal(nonNil(r.Keywords))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal keywords: %w", err)
	}

	categoriesJSON, err := json.Marshal(nonNil(r.Extension.Categories))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal categories: %w", err)
	}

	if handles == nil {
		handles = []Handle{}
	}
	handlesJSON, err := json.Marshal(handles)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal handles: %w", err)
	}

	hash := map[string]interface{}{
		"id":                       r.ID,
		"name":                     r.Name,
		"specified_name":           r.SpecifiedName,
		"version":                  r.Version,
		"description":              r.Description,
		"repository":               r.Repository,
		"keywords":                 string(keywordsJSON),
		"categories":               string(categoriesJSON),
		"support_status":           r.Extension.SupportStatus,
		"support_contact":          r.Extension.SupportContact,
		"default":                  r.Extension.Default,
		"path_hash":                r.PathHash,
		"validity_seconds":         int64(r.Validity / time.Second),
		"resource_name":            r.ResourceName,
		"execution_environment_id": r.ExecutionEnvironmentID,
		"created_at_ms":            r.CreatedAtMs,
		"handles":                  string(handlesJSON),
	}

	return hash, nil
}

// HashToEntry converts a Redis hash back to a record and its handles.
func HashToEntry(hash map[string]string) (*Entry, error) {
	var keywords []string
	if v := hash["keywords"]; v != "" {
		if err := json.Unmarshal([]byte(v), &keywords); err != nil {
			return nil, fmt.Errorf("failed to unmarshal keywords: %w", err)
		}
	}

	var categories []string
	if v := hash["categories"]; v != "" {
		if err := json.Unmarshal([]byte(v), &categories); err != nil {
			return nil, fmt.Errorf("failed to unmarshal categories: %w", err)
		}
	}

	var handles []Handle
	if v := hash["handles"]; v != "" {
		if err := json.Unmarshal([]byte(v), &handles); err != nil {
			return nil, fmt.Errorf("failed to unmarshal handles: %w", err)
		}
	}
	if handles == nil {
		handles = []Handle{}
	}

	validitySeconds, err := strconv.ParseInt(hash["validity_seconds"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid validity_seconds field: %w", err)
	}

	createdAtMs, _ := strconv.ParseInt(hash["created_at_ms"], 10, 64)

	record := &Record{
		ID:            hash["id"],
		Name:          hash["name"],
		SpecifiedName: hash["specified_name"],
		Version:       hash["version"],
		Description:   hash["description"],
		Repository:    hash["repository"],
		Keywords:      nonNil(keywords),
		Extension: Extension{
			Categories:     nonNil(categories),
			SupportStatus:  hash["support_status"],
			SupportContact: hash["support_contact"],
			Default:        hash["default"],
		},
		PathHash:               hash["path_hash"],
		Validity:               time.Duration(validitySeconds) * time.Second,
		ResourceName:           hash["resource_name"],
		ExecutionEnvironmentID: hash["execution_environment_id"],
		CreatedAtMs:            createdAtMs,
	}

	return &Entry{Record: record, Handles: handles}, nil
}

// nonNil returns an empty slice instead of nil so JSON output is always a list.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
