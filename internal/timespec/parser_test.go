package timespec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		spec    string
		want    time.Duration
		wantErr bool
	}{
		{spec: "168h", want: 168 * time.Hour},
		{spec: "90m", want: 90 * time.Minute},
		{spec: "7d", want: 7 * 24 * time.Hour},
		{spec: "1w", want: 7 * 24 * time.Hour},
		{spec: " 2w ", want: 14 * 24 * time.Hour},
		{spec: "0d", want: 0},
		{spec: "", wantErr: true},
		{spec: "xd", wantErr: true},
		{spec: "-1h", wantErr: true},
		{spec: "-3d", wantErr: true},
		{spec: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseDuration(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse(t *testing.T) {
	t.Run("RFC3339", func(t *testing.T) {
		ms, err := Parse("2025-10-29T13:00:00Z")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 10, 29, 13, 0, 0, 0, time.UTC).UnixMilli(), ms)
	})

	t.Run("relative duration", func(t *testing.T) {
		before := time.Now().Add(-time.Hour).UnixMilli()
		ms, err := Parse("1h")
		require.NoError(t, err)
		assert.InDelta(t, before, ms, 1000)
	})

	t.Run("relative days", func(t *testing.T) {
		before := time.Now().Add(-48 * time.Hour).UnixMilli()
		ms, err := Parse("2d")
		require.NoError(t, err)
		assert.InDelta(t, before, ms, 1000)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := Parse("yesterday")
		assert.Error(t, err)
	})
}

func TestParseRange(t *testing.T) {
	since, until, err := ParseRange("", "")
	require.NoError(t, err)
	assert.Zero(t, since)
	assert.Zero(t, until)

	_, _, err = ParseRange("1h", "2h")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "--since must be before --until")

	_, _, err = ParseRange("bogus", "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --since")

	since, until, err = ParseRange("2h", "1h")
	require.NoError(t, err)
	assert.Less(t, since, until)
}
