package answer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Submission maps question ids to the raw values a respondent sent.
type Submission map[string]RawAnswer

// RawAnswer is one submitted value before validation. On the wire it is
// either a bare string, an array of strings, or an object
// {"text": string|[]string, "latitude": number, "longitude": number}.
// Image is filled from the multipart file named image-{questionId}.
type RawAnswer struct {
	Text      *string
	Choices   []string
	Latitude  *float64
	Longitude *float64
	Image     *Upload
}

type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

func (r *RawAnswer) UnmarshalJSON(data []byte) error {
	*r = RawAnswer{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] != '{' {
		return r.unmarshalText(data)
	}

	var obj struct {
		Text      json.RawMessage `json:"text"`
		Latitude  *float64        `json:"latitude"`
		Longitude *float64        `json:"longitude"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	r.Latitude = obj.Latitude
	r.Longitude = obj.Longitude
	if len(obj.Text) == 0 || bytes.Equal(obj.Text, []byte("null")) {
		return nil
	}
	return r.unmarshalText(obj.Text)
}

func (r *RawAnswer) unmarshalText(data []byte) error {
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		r.Text = &s
	case '[':
		choices := []string{}
		if err := json.Unmarshal(data, &choices); err != nil {
			return err
		}
		r.Choices = choices
	default:
		return fmt.Errorf("unsupported answer value %s", data)
	}
	return nil
}
