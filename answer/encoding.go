package answer

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Point is a decoded location answer.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (p Point) valid() error {
	switch {
	case math.IsNaN(p.Latitude) || math.IsInf(p.Latitude, 0) ||
		math.IsNaN(p.Longitude) || math.IsInf(p.Longitude, 0):
		return fmt.Errorf("coordinates must be finite numbers")
	case p.Latitude < -90 || p.Latitude > 90:
		return fmt.Errorf("latitude %g out of range", p.Latitude)
	case p.Longitude < -180 || p.Longitude > 180:
		return fmt.Errorf("longitude %g out of range", p.Longitude)
	}
	return nil
}

// EncodeLocation renders p as "{latitude},{longitude}".
func EncodeLocation(p Point) string {
	return strconv.FormatFloat(p.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(p.Longitude, 'f', -1, 64)
}

func DecodeLocation(s string) (Point, error) {
	lat, lng, ok := strings.Cut(s, ",")
	if !ok {
		return Point{}, fmt.Errorf("malformed location %q", s)
	}
	var p Point
	var err error
	if p.Latitude, err = strconv.ParseFloat(strings.TrimSpace(lat), 64); err != nil {
		return Point{}, fmt.Errorf("malformed latitude in %q", s)
	}
	if p.Longitude, err = strconv.ParseFloat(strings.TrimSpace(lng), 64); err != nil {
		return Point{}, fmt.Errorf("malformed longitude in %q", s)
	}
	if err = p.valid(); err != nil {
		return Point{}, err
	}
	return p, nil
}

// EncodeChoices renders a checkbox selection as a JSON array.
func EncodeChoices(choices []string) string {
	data, _ := json.Marshal(choices)
	return string(data)
}

func DecodeChoices(s string) ([]string, error) {
	var choices []string
	if err := json.Unmarshal([]byte(s), &choices); err != nil {
		return nil, fmt.Errorf("malformed selection %q: %w", s, err)
	}
	if choices == nil {
		return nil, fmt.Errorf("malformed selection %q", s)
	}
	return choices, nil
}

var dateLayouts = []string{dateLayout, time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"}

// NormalizeDate accepts an ISO date or date-time and returns its calendar
// date as YYYY-MM-DD.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(dateLayout), nil
		}
	}
	return "", fmt.Errorf("%q is not an ISO date", s)
}
