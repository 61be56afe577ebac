// Package question holds the closed set of question types a form can carry,
// together with the per-type rules every other layer dispatches on.
package question

import "strings"

type Type string

const (
	Short    Type = "short"
	Long     Type = "long"
	Multiple Type = "multiple"
	Checkbox Type = "checkbox"
	Location Type = "location"
	Image    Type = "image"
	File     Type = "file"
	Date     Type = "date"
)

// PayloadKind is the shape of the value stored for an answered question.
type PayloadKind int

const (
	PayloadText PayloadKind = iota + 1
	PayloadOptionSingle
	PayloadOptionMulti
	PayloadLocation
	PayloadImage
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadText:
		return "text"
	case PayloadOptionSingle:
		return "option-single"
	case PayloadOptionMulti:
		return "option-multi"
	case PayloadLocation:
		return "location"
	case PayloadImage:
		return "image"
	}
	return "unknown"
}

type rules struct {
	payload    PayloadKind
	options    bool
	attachment bool
}

// file uploads occupy the image column, so they take no extra attachment
var registry = map[Type]rules{
	Short:    {payload: PayloadText, attachment: true},
	Long:     {payload: PayloadText, attachment: true},
	Date:     {payload: PayloadText, attachment: true},
	Multiple: {payload: PayloadOptionSingle, options: true, attachment: true},
	Checkbox: {payload: PayloadOptionMulti, options: true, attachment: true},
	Location: {payload: PayloadLocation, attachment: true},
	Image:    {payload: PayloadImage},
	File:     {payload: PayloadImage},
}

var ordered = []Type{Short, Long, Multiple, Checkbox, Location, Image, File, Date}

// All returns every known type in display order.
func All() []Type {
	types := make([]Type, len(ordered))
	copy(types, ordered)
	return types
}

// Parse normalizes s (case and surrounding blanks) and reports whether it
// names a known type.
func Parse(s string) (Type, bool) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	_, ok := registry[t]
	return t, ok
}

func (t Type) Valid() bool {
	_, ok := registry[t]
	return ok
}

// RequiredPayloadKind returns the stored payload shape for t, or 0 when t is
// not a known type.
func RequiredPayloadKind(t Type) PayloadKind {
	return registry[t].payload
}

func SupportsOptions(t Type) bool {
	return registry[t].options
}

func SupportsImageAttachment(t Type) bool {
	return registry[t].attachment
}

// Uploaded reports whether the primary answer of t is a stored file.
func Uploaded(t Type) bool {
	return registry[t].payload == PayloadImage
}
