// Package answer validates submitted values against their questions and
// turns them into stored answers.
package answer

import (
	"context"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/mbolis/quick-forms/imagestore"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/question"
)

type Validator struct {
	images imagestore.Store
}

func NewValidator(images imagestore.Store) *Validator {
	return &Validator{images: images}
}

// checked is a validated answer whose image, if any, is not yet stored.
type checked struct {
	answer model.Answer
	upload *Upload
}

// Check validates raw against q without storing anything. A nil result
// with a nil error means the question was left unanswered.
func Check(q model.Question, raw RawAnswer) (*model.Answer, error) {
	c, err := check(q, raw)
	if c == nil || err != nil {
		return nil, err
	}
	return &c.answer, nil
}

func check(q model.Question, raw RawAnswer) (*checked, error) {
	c := &checked{answer: model.Answer{QuestionID: q.ID}}

	var err error
	switch question.RequiredPayloadKind(q.Type) {
	case question.PayloadText:
		err = c.text(q, raw)
	case question.PayloadOptionSingle:
		err = c.single(q, raw)
	case question.PayloadOptionMulti:
		err = c.multi(q, raw)
	case question.PayloadLocation:
		err = c.location(q, raw)
	case question.PayloadImage:
		err = c.file(q, raw)
	default:
		err = model.InvalidAnswer(q, "unsupported question type %q", q.Type)
	}
	if err != nil {
		return nil, err
	}

	if raw.Image != nil && c.upload == nil {
		if q.AllowImage && question.SupportsImageAttachment(q.Type) {
			if !isImage(raw.Image) {
				return nil, model.InvalidAnswer(q, "attachment must be an image")
			}
			c.upload = raw.Image
		} else {
			log.Debugf("answer.attachment.ignored: question %s", q.ID)
		}
	}

	if c.answer.Empty() && c.upload == nil {
		return nil, nil
	}
	return c, nil
}

func (c *checked) text(q model.Question, raw RawAnswer) error {
	if len(raw.Choices) > 0 || raw.Latitude != nil || raw.Longitude != nil {
		return model.InvalidAnswer(q, "expected a single text value")
	}
	text := ""
	if raw.Text != nil {
		text = *raw.Text
	}
	if strings.TrimSpace(text) == "" {
		if q.IsRequired {
			return model.RequiredField(q)
		}
		return nil
	}

	if q.Type == question.Date {
		date, err := NormalizeDate(text)
		if err != nil {
			return model.InvalidAnswer(q, "%v", err)
		}
		text = date
	}
	c.answer.AnswerText = &text
	return nil
}

func (c *checked) single(q model.Question, raw RawAnswer) error {
	choices := selection(raw)
	if len(choices) == 0 {
		if q.IsRequired {
			return model.RequiredField(q)
		}
		return nil
	}
	if len(choices) > 1 {
		return model.InvalidAnswer(q, "only one option may be selected")
	}
	if !q.HasOption(choices[0]) {
		return model.InvalidAnswer(q, "%q is not one of the options", choices[0])
	}
	c.answer.AnswerOption = &choices[0]
	return nil
}

func (c *checked) multi(q model.Question, raw RawAnswer) error {
	choices := selection(raw)
	if len(choices) == 0 {
		if q.IsRequired {
			return model.RequiredField(q)
		}
		return nil
	}
	for _, choice := range choices {
		if !q.HasOption(choice) {
			return model.InvalidAnswer(q, "%q is not one of the options", choice)
		}
	}
	encoded := EncodeChoices(choices)
	c.answer.AnswerOption = &encoded
	return nil
}

func (c *checked) location(q model.Question, raw RawAnswer) error {
	if len(raw.Choices) > 0 || raw.Text != nil && strings.TrimSpace(*raw.Text) != "" {
		return model.InvalidAnswer(q, "expected an object with latitude and longitude")
	}
	if raw.Latitude == nil || raw.Longitude == nil {
		switch {
		case q.IsRequired:
			return model.RequiredField(q)
		case raw.Latitude != nil || raw.Longitude != nil:
			return model.InvalidAnswer(q, "location needs both latitude and longitude")
		}
		return nil
	}

	p := Point{Latitude: *raw.Latitude, Longitude: *raw.Longitude}
	if err := p.valid(); err != nil {
		return model.InvalidAnswer(q, "%v", err)
	}
	encoded := EncodeLocation(p)
	c.answer.AnswerLocation = &encoded
	return nil
}

func (c *checked) file(q model.Question, raw RawAnswer) error {
	if raw.Image == nil {
		if q.IsRequired {
			return model.RequiredImage(q)
		}
		return nil
	}
	if q.Type == question.Image && !isImage(raw.Image) {
		return model.InvalidAnswer(q, "upload must be an image")
	}
	c.upload = raw.Image
	return nil
}

// selection reads a choice answer from either the array or the string form,
// dropping blanks and repeats.
func selection(raw RawAnswer) []string {
	values := raw.Choices
	if values == nil && raw.Text != nil {
		values = []string{*raw.Text}
	}

	seen := make(map[string]bool, len(values))
	choices := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		choices = append(choices, v)
	}
	return choices
}

func isImage(u *Upload) bool {
	return strings.HasPrefix(strings.ToLower(u.ContentType), "image/")
}

// Validate checks a single answer and stores its image, if any.
func (v *Validator) Validate(ctx context.Context, formID string, q model.Question, raw RawAnswer) (*model.Answer, error) {
	accepted, err := v.ValidateSubmission(ctx, formID, []model.Question{q}, Submission{q.ID: raw})
	if err != nil || len(accepted.Answers) == 0 {
		return nil, err
	}
	return &accepted.Answers[0], nil
}

// Accepted holds the answers of a validated submission together with the
// keys of the images stored for it.
type Accepted struct {
	Answers []model.Answer
	keys    []string
	images  imagestore.Store
}

// Discard removes the images stored for the submission. Failures are
// logged, not returned.
func (a *Accepted) Discard(ctx context.Context) {
	for _, key := range a.keys {
		if err := a.images.Delete(ctx, key); err != nil {
			log.WithError(err).WithField("key", key).Warn("answer.discard_image")
		}
	}
	a.keys = nil
}

// ValidateSubmission checks every question of a form against sub and
// reports all failures at once. Images are stored only once every answer
// is valid; an upload failure removes the images already stored and
// aborts the whole submission.
func (v *Validator) ValidateSubmission(ctx context.Context, formID string, questions []model.Question, sub Submission) (*Accepted, error) {
	var errs *multierror.Error
	pending := make([]*checked, 0, len(questions))
	for _, q := range questions {
		c, err := check(q, sub[q.ID])
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if c != nil {
			pending = append(pending, c)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	accepted := &Accepted{Answers: make([]model.Answer, 0, len(pending)), images: v.images}
	for _, c := range pending {
		if c.upload != nil {
			url, err := v.store(ctx, formID, accepted, c.upload)
			if err != nil {
				accepted.Discard(ctx)
				return nil, &model.ImageUploadError{QuestionID: c.answer.QuestionID, Err: err}
			}
			c.answer.AnswerImage = &url
		}
		accepted.Answers = append(accepted.Answers, c.answer)
	}
	return accepted, nil
}

func (v *Validator) store(ctx context.Context, formID string, accepted *Accepted, u *Upload) (string, error) {
	key, err := imagestore.Key(formID, u.Filename)
	if err != nil {
		return "", err
	}
	url, err := v.images.Put(ctx, key, u.ContentType, u.Body)
	if err != nil {
		return "", err
	}
	accepted.keys = append(accepted.keys, key)
	return url, nil
}
