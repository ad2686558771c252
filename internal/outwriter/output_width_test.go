package outwriter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sundog-labs/pvdrift/internal/contract"
)

func TestGetMaxTableColumnWidth(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *contract.Config
		expected int
	}{
		{
			name:     "default width",
			cfg:      &contract.Config{Width: 80},
			expected: 30, // 80 - 50 base
		},
		{
			name:     "wide terminal hits the cap",
			cfg:      &contract.Config{Width: 200},
			expected: 40,
		},
		{
			name:     "narrow terminal hits the floor",
			cfg:      &contract.Config{Width: 30},
			expected: 15,
		},
		{
			name:     "detail columns eat the budget",
			cfg:      &contract.Config{Width: 80, Detail: true},
			expected: 15, // 80 - 90 clamps to the floor
		},
		{
			name:     "detail with room to spare",
			cfg:      &contract.Config{Width: 120, Detail: true},
			expected: 30, // 120 - 90
		},
		{
			name:     "detail and explain together",
			cfg:      &contract.Config{Width: 140, Detail: true, Explain: true},
			expected: 25, // 140 - 115
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, getMaxTableColumnWidth(tt.cfg))
		})
	}
}
