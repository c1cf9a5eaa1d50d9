package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLuaService_Evaluate(t *testing.T) {
	s := NewLuaService()

	tests := []struct {
		name    string
		formula string
		vars    map[string]float64
		want    float64
		wantErr bool
	}{
		{
			name:    "constant",
			formula: "7",
			want:    7,
		},
		{
			name:    "arithmetic with context variables",
			formula: "strength / 2 + 4",
			vars:    map[string]float64{"strength": 10},
			want:    9,
		},
		{
			name:    "math library is available",
			formula: "math.floor(dexterity * 1.5)",
			vars:    map[string]float64{"dexterity": 7},
			want:    10,
		},
		{
			name:    "syntax error",
			formula: "1 +",
			wantErr: true,
		},
		{
			name:    "non-numeric result",
			formula: "'words'",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Evaluate(tt.formula, tt.vars)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
