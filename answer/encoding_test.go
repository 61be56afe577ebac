package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationRoundTrip(t *testing.T) {
	points := []Point{
		{Latitude: -23.550520, Longitude: -46.633308},
		{Latitude: 0, Longitude: 0},
		{Latitude: 89.999999999, Longitude: 179.5},
		{Latitude: 1.0 / 3, Longitude: -2.0 / 3},
	}
	for _, p := range points {
		got, err := DecodeLocation(EncodeLocation(p))
		require.NoError(t, err)
		assert.InDelta(t, p.Latitude, got.Latitude, 1e-9)
		assert.InDelta(t, p.Longitude, got.Longitude, 1e-9)
	}
}

func TestDecodeLocationRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "12", `{"latitude":1,"longitude":2}`, "a,b", "95,0", "0,200"} {
		_, err := DecodeLocation(s)
		assert.Error(t, err, s)
	}
}

func TestChoicesRoundTrip(t *testing.T) {
	got, err := DecodeChoices(EncodeChoices([]string{"A", "B, with comma"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B, with comma"}, got)

	_, err = DecodeChoices("A,B")
	assert.Error(t, err)
	_, err = DecodeChoices("null")
	assert.Error(t, err)
}

func TestNormalizeDate(t *testing.T) {
	tests := map[string]string{
		"2024-01-31":                "2024-01-31",
		" 2024-01-31 ":              "2024-01-31",
		"2024-01-31T23:10":          "2024-01-31",
		"2024-01-31T23:10:05":       "2024-01-31",
		"2024-01-31T23:10:05-03:00": "2024-01-31",
	}
	for in, want := range tests {
		got, err := NormalizeDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := NormalizeDate("31/01/2024")
	assert.Error(t, err)
}
