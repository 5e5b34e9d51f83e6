package catalog

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestModuleHandle(t *testing.T) {
	tests := []struct {
		name    string
		pkg     string
		version string
		want    string
	}{
		{"name and version", "gcc", "9.2.0", "gcc/9.2.0"},
		{"nested name", "openmpi/gcc", "4.0", "openmpi/gcc/4.0"},
		{"no version", "modules", "", "modules"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := ModuleHandle(tt.pkg, tt.version)
			assert.Equal(t, HandleKindModule, h.Kind)
			assert.Equal(t, tt.want, h.Value)
		})
	}
}

func TestRecordValidate(t *testing.T) {
	valid := func() *Record {
		return &Record{
			ID:           uuid.New().String(),
			Name:         "gcc",
			PathHash:     "abc",
			Validity:     DefaultValidity,
			ResourceName: "cluster",
		}
	}

	tests := []struct {
		name    string
		mutate  func(r *Record)
		wantErr string
	}{
		{"valid record", func(r *Record) {}, ""},
		{"bad id", func(r *Record) { r.ID = "not-a-uuid" }, "id must be a valid UUID"},
		{"missing name", func(r *Record) { r.Name = "" }, "name is required"},
		{"missing path hash", func(r *Record) { r.PathHash = "" }, "path_hash is required"},
		{"missing resource", func(r *Record) { r.ResourceName = "" }, "resource_name is required"},
		{"negative validity", func(r *Record) { r.Validity = -time.Second }, "validity must be >= 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mutate(r)
			err := r.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHandleValidate(t *testing.T) {
	assert.NoError(t, ModuleHandle("gcc", "1").Validate())
	assert.Error(t, Handle{Kind: "rpm", Value: "gcc"}.Validate())
	assert.Error(t, Handle{Kind: HandleKindModule}.Validate())
}
