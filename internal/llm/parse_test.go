package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/syncora/internal/common"
)

func TestParseMinutes(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"45", 45, false},
		{" 45\n", 45, false},
		{"0", 0, false},
		{"10000", 10000, false},
		{"ASSIGNMENT NOT DETECTED", 0, true},
		{"forty-five", 0, true},
		{"45 minutes", 0, true},
		{"4.5", 0, true},
		{"", 0, true},
		{"-5", 0, true},
		{"10001", 0, true},
		{"99999999999999999999", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseMinutes(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrEstimationUnavailable)
				assert.Contains(t, err.Error(), "may not be a valid assignment")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMinutes_Pure(t *testing.T) {
	a, errA := ParseMinutes("120")
	b, errB := ParseMinutes("120")
	assert.Equal(t, a, b)
	assert.Equal(t, errA, errB)
}
