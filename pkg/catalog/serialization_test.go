package catalog

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

// TestEntryRoundTrip tests that record serialization and deserialization keeps every field
func TestEntryRoundTrip(t *testing.T) {
	record := &Record{
		ID:            uuid.New().String(),
		Name:          "openmpi",
		SpecifiedName: "openmpi",
		Version:       "4.1.1",
		Description:   "Open MPI implementation",
		Repository:    "https://www.open-mpi.org",
		Keywords:      []string{"mpi", "parallel"},
		Extension: Extension{
			Categories:     []string{"library", "communication"},
			SupportStatus:  "production",
			SupportContact: "help@example.org",
			Default:        "true",
		},
		PathHash:               "5d41402abc4b2a76b9719d911017c592",
		Validity:               7 * 24 * time.Hour,
		ResourceName:           "cluster.example.org",
		ExecutionEnvironmentID: "urn:glue2:ExecutionEnvironment:cluster.example.org",
		CreatedAtMs:            1700000000000,
	}
	handles := []Handle{record.Handle()}

	hash, err := RecordToHash(record, handles)
	if err != nil {
		t.Fatalf("RecordToHash failed: %v", err)
	}

	result, err := HashToEntry(toStringHash(hash))
	if err != nil {
		t.Fatalf("HashToEntry failed: %v", err)
	}

	if !reflect.DeepEqual(record, result.Record) {
		t.Errorf("round-trip failed:\noriginal: %+v\nresult:   %+v", record, result.Record)
	}
	if !reflect.DeepEqual(handles, result.Handles) {
		t.Errorf("handles round-trip failed: %+v != %+v", handles, result.Handles)
	}
}

// TestEntryRoundTrip_EmptyLists tests that nil lists come back as empty lists
func TestEntryRoundTrip_EmptyLists(t *testing.T) {
	record := &Record{
		ID:           uuid.New().String(),
		Name:         "cmake",
		PathHash:     "abc",
		Validity:     time.Hour,
		ResourceName: "r",
	}

	hash, err := RecordToHash(record, nil)
	if err != nil {
		t.Fatalf("RecordToHash failed: %v", err)
	}

	result, err := HashToEntry(toStringHash(hash))
	if err != nil {
		t.Fatalf("HashToEntry failed: %v", err)
	}

	if result.Record.Keywords == nil || len(result.Record.Keywords) != 0 {
		t.Errorf("expected empty keywords, got %#v", result.Record.Keywords)
	}
	if result.Record.Extension.Categories == nil || len(result.Record.Extension.Categories) != 0 {
		t.Errorf("expected empty categories, got %#v", result.Record.Extension.Categories)
	}
	if result.Handles == nil || len(result.Handles) != 0 {
		t.Errorf("expected empty handles, got %#v", result.Handles)
	}
}

func TestHashToEntry_InvalidFields(t *testing.T) {
	base := func() map[string]string {
		return map[string]string{
			"id":               uuid.New().String(),
			"name":             "gcc",
			"validity_seconds": "60",
		}
	}

	tests := []struct {
		name  string
		field string
		value string
	}{
		{"bad validity", "validity_seconds", "soon"},
		{"bad keywords", "keywords", "not-json"},
		{"bad categories", "categories", "{"},
		{"bad handles", "handles", "[1,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash := base()
			hash[tt.field] = tt.value
			if _, err := HashToEntry(hash); err == nil {
				t.Errorf("expected error for %s=%q", tt.field, tt.value)
			}
		})
	}
}

// toStringHash simulates Redis storage, which keeps every hash field as a string.
func toStringHash(hash map[string]interface{}) map[string]string {
	out := make(map[string]string, len(hash))
	for k, v := range hash {
		out[k] = fmt.Sprint(v)
	}
	return out
}
