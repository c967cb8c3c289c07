package port

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReserved(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Range
		wantErr bool
	}{
		{name: "empty", input: "", want: nil},
		{name: "newline only", input: "\n", want: nil},
		{name: "single", input: "8080\n", want: []Range{{8080, 8080}}},
		{name: "mixed", input: "8080,9000-9010,40001", want: []Range{{8080, 8080}, {9000, 9010}, {40001, 40001}}},
		{name: "trailing comma", input: "8080,", want: []Range{{8080, 8080}}},
		{name: "garbage", input: "80a", wantErr: true},
		{name: "zero", input: "0", wantErr: true},
		{name: "too large", input: "70000", wantErr: true},
		{name: "inverted range", input: "9010-9000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReserved(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatReserved(t *testing.T) {
	assert.Equal(t, "8080,9000-9010", FormatReserved([]Range{{8080, 8080}, {9000, 9010}}))
	assert.Equal(t, "", FormatReserved(nil))
}

// TestAppendPort verifies the comma is only inserted when the list already
// has entries.
func TestAppendPort(t *testing.T) {
	assert.Equal(t, "40000", appendPort("", 40000))
	assert.Equal(t, "40000", appendPort("  \n", 40000))
	assert.Equal(t, "8080,40000", appendPort("8080\n", 40000))
}

func TestRemovePort(t *testing.T) {
	next, removed, err := removePort("8080,9000-9010,40000", 40000)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, "8080,9000-9010", next)

	// A port inside a range is not a single-port entry.
	next, removed, err = removePort("9000-9010", 9005)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, "9000-9010", next)
}

func TestRangeContains(t *testing.T) {
	r := Range{Lo: 9000, Hi: 9010}
	assert.True(t, r.Contains(9000))
	assert.True(t, r.Contains(9010))
	assert.False(t, r.Contains(9011))
}
