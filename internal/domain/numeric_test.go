package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFloat(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want *float64
	}{
		{"plain", "42.5", floatPtr(42.5)},
		{"integer", "100", floatPtr(100)},
		{"negative", "-3.2", floatPtr(-3.2)},
		{"empty", "", nil},
		{"na", "NA", nil},
		{"null", "null", nil},
		{"none", "None", nil},
		{"garbage", "abc", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFloat(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestParseIntRounds(t *testing.T) {
	got := ParseInt("41524.6")
	require.NotNil(t, got)
	assert.Equal(t, 41525, *got)

	got = ParseInt("-2.5")
	require.NotNil(t, got)
	assert.Equal(t, -3, *got)

	assert.Nil(t, ParseInt(""))
	assert.Nil(t, ParseInt("NA"))
}

func TestAnnualGrowthRate(t *testing.T) {
	rate := AnnualGrowthRate(floatPtr(100), floatPtr(200), 10)
	require.NotNil(t, rate)
	// Doubling over 10 years is about 7.18% per year.
	assert.InDelta(t, 0.0718, *rate, 1e-4)
}

func TestAnnualGrowthRateAbsentInputs(t *testing.T) {
	assert.Nil(t, AnnualGrowthRate(nil, floatPtr(200), 10))
	assert.Nil(t, AnnualGrowthRate(floatPtr(100), nil, 10))
	assert.Nil(t, AnnualGrowthRate(floatPtr(0), floatPtr(200), 10), "zero base has no growth rate")
	assert.Nil(t, AnnualGrowthRate(floatPtr(100), floatPtr(200), 0))
}
