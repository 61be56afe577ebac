package model

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/mbolis/quick-forms/question"
)

// FormDraft is a full form as submitted by its owner on create or save.
type FormDraft struct {
	Version     int             `json:"version,omitempty"`
	Title       string          `json:"title"`
	Description *string         `json:"description,omitempty"`
	Questions   []QuestionDraft `json:"questions"`
}

// QuestionDraft carries ID only when the client saw a persisted question.
type QuestionDraft struct {
	ID         string   `json:"id,omitempty"`
	Title      string   `json:"title"`
	Type       string   `json:"type"`
	IsRequired bool     `json:"isRequired"`
	AllowImage bool     `json:"allowImage"`
	Options    []string `json:"options,omitempty"`
}

// PreparedForm is a validated, normalized FormDraft. Question orders equal
// their index; IDs are copied from the draft and may be empty.
type PreparedForm struct {
	Version     int
	Title       string
	Description *string
	Questions   []Question
}

// Prepare trims and validates the draft, reporting every problem found.
func (d FormDraft) Prepare() (PreparedForm, error) {
	var errs *multierror.Error

	p := PreparedForm{
		Version:     d.Version,
		Title:       strings.TrimSpace(d.Title),
		Description: normalizeDescription(d.Description),
	}
	if p.Title == "" {
		errs = multierror.Append(errs, Invalid("title", "title is required"))
	}
	if len(d.Questions) == 0 {
		errs = multierror.Append(errs, Invalid("questions", "a form needs at least one question"))
	}

	p.Questions = make([]Question, 0, len(d.Questions))
	for i, qd := range d.Questions {
		q, err := qd.prepare(i)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		p.Questions = append(p.Questions, q)
	}

	return p, errs.ErrorOrNil()
}

func (qd QuestionDraft) prepare(i int) (Question, error) {
	var errs *multierror.Error
	field := fmt.Sprintf("questions[%d]", i)

	q := Question{
		ID:         strings.TrimSpace(qd.ID),
		Title:      strings.TrimSpace(qd.Title),
		IsRequired: qd.IsRequired,
		Order:      i,
	}
	if q.Title == "" {
		errs = multierror.Append(errs, Invalid(field+".title", "question title is required"))
	}

	typ, ok := question.Parse(qd.Type)
	if !ok {
		errs = multierror.Append(errs, Invalid(field+".type", "unknown question type %q", qd.Type))
		return q, errs.ErrorOrNil()
	}
	q.Type = typ
	q.AllowImage = qd.AllowImage && question.SupportsImageAttachment(typ)

	if question.SupportsOptions(typ) {
		q.Options = normalizeOptions(qd.Options)
		if len(q.Options) == 0 {
			errs = multierror.Append(errs, Invalid(field+".options", "a %s question needs at least one option", typ))
		}
	}

	return q, errs.ErrorOrNil()
}

// normalizeOptions trims options, dropping blanks and repeats.
func normalizeOptions(options []string) []string {
	seen := make(map[string]bool, len(options))
	normalized := make([]string, 0, len(options))
	for _, opt := range options {
		opt = strings.TrimSpace(opt)
		if opt == "" || seen[opt] {
			continue
		}
		seen[opt] = true
		normalized = append(normalized, opt)
	}
	return normalized
}

func normalizeDescription(desc *string) *string {
	if desc == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*desc)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// FormPatch updates scalar form fields only. A nil field is left untouched;
// a blank Description clears it.
type FormPatch struct {
	Version     int     `json:"version,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (p FormPatch) Prepare() (FormPatch, error) {
	prepared := FormPatch{Version: p.Version}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return prepared, Invalid("title", "title is required")
		}
		prepared.Title = &title
	}
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		prepared.Description = &desc
	}
	return prepared, nil
}
