package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	values := []float64{0, 1, 1024, 123456.789, 1 << 20}
	for _, x := range values {
		assert.Equal(t, x, Convert(x, MB), "MB is identity")
		assert.Equal(t, x*(1.0/1024), Convert(x, GB))
		assert.Equal(t, x*(1.0/(1024*1024)), Convert(x, TB))
	}
}

func TestConvert_Linearity(t *testing.T) {
	total := 3_221_225_472.0 // 3 TB in MB
	gb := Convert(total, GB)
	assert.InDelta(t, total/1024, gb, 1e-9)
	assert.InDelta(t, gb/1024, Convert(total, TB), 1e-9)
	assert.InDelta(t, 3.0, Convert(total, TB)/1024, 1e-9)
}

func TestParseUnit(t *testing.T) {
	cases := []struct {
		in   string
		want Unit
		ok   bool
	}{
		{"MB", MB, true},
		{"gb", GB, true},
		{" Tb ", TB, true},
		{"", MB, true},
		{"PB", MB, false},
		{"kb", MB, false},
	}
	for _, tc := range cases {
		got, err := ParseUnit(tc.in)
		if tc.ok {
			require.NoError(t, err, tc.in)
		} else {
			require.ErrorIs(t, err, ErrInvalidUnit, tc.in)
		}
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "1000.00 MB", FormatQuantity(1000, MB))
	assert.Equal(t, "0.98 GB", FormatQuantity(1000.0/1024, GB))
	assert.Equal(t, "1.01 TB", FormatQuantity(1.005, TB))
	assert.Equal(t, "0.00 GB", FormatQuantity(0, GB))
}

func TestMonthName(t *testing.T) {
	assert.Equal(t, "January", MonthName(1))
	assert.Equal(t, "December", MonthName(12))
	assert.Equal(t, "Month 13", MonthName(13))
}
