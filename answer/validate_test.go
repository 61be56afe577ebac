package answer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/question"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImages struct {
	stored  map[string]string
	deleted []string
	failOn  int
	puts    int
}

func newFakeImages() *fakeImages {
	return &fakeImages{stored: map[string]string{}}
}

func (f *fakeImages) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	f.puts++
	if f.failOn == f.puts {
		return "", errors.New("bucket unavailable")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.stored[key] = string(data)
	return "https://img.test/" + key, nil
}

func (f *fakeImages) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	delete(f.stored, key)
	return nil
}

func str(s string) *string   { return &s }
func num(f float64) *float64 { return &f }

func png(data string) *Upload {
	return &Upload{Filename: "a.png", ContentType: "image/png", Body: strings.NewReader(data)}
}

func pdf(data string) *Upload {
	return &Upload{Filename: "a.pdf", ContentType: "application/pdf", Body: strings.NewReader(data)}
}

func required(q model.Question) model.Question {
	q.IsRequired = true
	return q
}

var (
	shortQ    = model.Question{ID: "q-short", Title: "Name", Type: question.Short}
	dateQ     = model.Question{ID: "q-date", Title: "When", Type: question.Date}
	multiQ    = model.Question{ID: "q-multi", Title: "One", Type: question.Multiple, Options: []string{"A", "B"}}
	checkQ    = model.Question{ID: "q-check", Title: "Many", Type: question.Checkbox, Options: []string{"A", "B", "C"}}
	locationQ = model.Question{ID: "q-loc", Title: "Where", Type: question.Location}
	imageQ    = model.Question{ID: "q-img", Title: "Photo", Type: question.Image}
	fileQ     = model.Question{ID: "q-file", Title: "CV", Type: question.File}
)

func TestCheckText(t *testing.T) {
	_, err := Check(required(shortQ), RawAnswer{Text: str("   ")})
	var rerr *model.RequiredFieldError
	assert.True(t, errors.As(err, &rerr))

	_, err = Check(required(shortQ), RawAnswer{})
	assert.True(t, errors.As(err, &rerr))

	a, err := Check(required(shortQ), RawAnswer{Text: str("Ada")})
	require.NoError(t, err)
	assert.Equal(t, "Ada", *a.AnswerText)
	assert.Equal(t, "q-short", a.QuestionID)

	a, err = Check(shortQ, RawAnswer{Text: str(" ")})
	assert.NoError(t, err)
	assert.Nil(t, a, "blank optional text is not answered")
}

func TestCheckDate(t *testing.T) {
	a, err := Check(dateQ, RawAnswer{Text: str("2024-03-09T10:00:00Z")})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09", *a.AnswerText)

	_, err = Check(dateQ, RawAnswer{Text: str("next tuesday")})
	var verr *model.ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = Check(required(dateQ), RawAnswer{})
	var rerr *model.RequiredFieldError
	assert.True(t, errors.As(err, &rerr))
}

func TestCheckMultiple(t *testing.T) {
	a, err := Check(multiQ, RawAnswer{Text: str("B")})
	require.NoError(t, err)
	assert.Equal(t, "B", *a.AnswerOption)

	a, err = Check(multiQ, RawAnswer{Choices: []string{"A"}})
	require.NoError(t, err)
	assert.Equal(t, "A", *a.AnswerOption)

	_, err = Check(multiQ, RawAnswer{Text: str("Z")})
	assert.Error(t, err)

	_, err = Check(multiQ, RawAnswer{Choices: []string{"A", "B"}})
	assert.Error(t, err)

	_, err = Check(required(multiQ), RawAnswer{})
	var rerr *model.RequiredFieldError
	assert.True(t, errors.As(err, &rerr))
}

func TestCheckCheckbox(t *testing.T) {
	a, err := Check(checkQ, RawAnswer{Choices: []string{"B", "A", "B"}})
	require.NoError(t, err)
	assert.Equal(t, `["B","A"]`, *a.AnswerOption)

	_, err = Check(checkQ, RawAnswer{Choices: []string{"A", "nope"}})
	assert.Error(t, err)

	_, err = Check(required(checkQ), RawAnswer{Choices: []string{}})
	var rerr *model.RequiredFieldError
	assert.True(t, errors.As(err, &rerr), "an empty selection is no answer")

	a, err = Check(checkQ, RawAnswer{Choices: []string{}})
	assert.NoError(t, err)
	assert.Nil(t, a)
}

func TestCheckLocation(t *testing.T) {
	a, err := Check(locationQ, RawAnswer{Latitude: num(-23.5505), Longitude: num(-46.6333)})
	require.NoError(t, err)
	assert.Equal(t, "-23.5505,-46.6333", *a.AnswerLocation)

	var rerr *model.RequiredFieldError
	_, err = Check(required(locationQ), RawAnswer{Latitude: num(1)})
	assert.True(t, errors.As(err, &rerr))

	_, err = Check(locationQ, RawAnswer{Latitude: num(1)})
	assert.Error(t, err)
	assert.False(t, errors.As(err, &rerr))

	_, err = Check(locationQ, RawAnswer{Latitude: num(math.NaN()), Longitude: num(0)})
	assert.Error(t, err)

	_, err = Check(locationQ, RawAnswer{Latitude: num(91), Longitude: num(0)})
	assert.Error(t, err)

	a, err = Check(locationQ, RawAnswer{})
	assert.NoError(t, err)
	assert.Nil(t, a)
}

func TestCheckImageRequired(t *testing.T) {
	_, err := Check(required(imageQ), RawAnswer{})
	var ierr *model.RequiredImageError
	assert.True(t, errors.As(err, &ierr))

	_, err = Check(imageQ, RawAnswer{Image: pdf("x")})
	assert.Error(t, err, "image questions only take images")

	_, err = Check(fileQ, RawAnswer{Image: pdf("x")})
	assert.NoError(t, err)
}

func TestValidateStoresImages(t *testing.T) {
	images := newFakeImages()
	v := NewValidator(images)

	a, err := v.Validate(context.Background(), "f1", imageQ, RawAnswer{Image: png("pixels")})
	require.NoError(t, err)
	require.NotNil(t, a.AnswerImage)
	assert.True(t, strings.HasPrefix(*a.AnswerImage, "https://img.test/form_uploads/f1/"))
	assert.Len(t, images.stored, 1)
}

func TestValidateAttachment(t *testing.T) {
	images := newFakeImages()
	v := NewValidator(images)

	withImage := shortQ
	withImage.AllowImage = true
	a, err := v.Validate(context.Background(), "f1", withImage, RawAnswer{Text: str("hi"), Image: png("p")})
	require.NoError(t, err)
	assert.Equal(t, "hi", *a.AnswerText)
	assert.NotNil(t, a.AnswerImage)

	a, err = v.Validate(context.Background(), "f1", shortQ, RawAnswer{Text: str("hi"), Image: png("p")})
	require.NoError(t, err)
	assert.Nil(t, a.AnswerImage, "attachments on questions that do not allow them are dropped")
	assert.Len(t, images.stored, 1)
}

func TestValidateSubmissionCollectsAllErrors(t *testing.T) {
	v := NewValidator(newFakeImages())
	questions := []model.Question{required(shortQ), required(checkQ), required(imageQ), locationQ}

	_, err := v.ValidateSubmission(context.Background(), "f1", questions, Submission{
		"q-loc": {Latitude: num(1), Longitude: num(2)},
	})
	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 3)
}

func TestValidateSubmissionUploadFailureAborts(t *testing.T) {
	images := newFakeImages()
	images.failOn = 2
	v := NewValidator(images)

	second := imageQ
	second.ID = "q-img-2"
	accepted, err := v.ValidateSubmission(context.Background(), "f1", []model.Question{imageQ, second}, Submission{
		"q-img":   {Image: png("one")},
		"q-img-2": {Image: png("two")},
	})
	assert.Nil(t, accepted)

	var uerr *model.ImageUploadError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, "q-img-2", uerr.QuestionID)
	assert.Empty(t, images.stored, "images stored before the failure are removed")
	assert.Len(t, images.deleted, 1)
}

func TestValidateSubmissionSkipsUnanswered(t *testing.T) {
	v := NewValidator(newFakeImages())
	accepted, err := v.ValidateSubmission(context.Background(), "f1",
		[]model.Question{shortQ, checkQ}, Submission{"q-check": {Choices: []string{"C"}}, "stray": {Text: str("x")}})
	require.NoError(t, err)
	require.Len(t, accepted.Answers, 1)
	assert.Equal(t, "q-check", accepted.Answers[0].QuestionID)
}

func TestRawAnswerJSON(t *testing.T) {
	var sub Submission
	require.NoError(t, json.Unmarshal([]byte(`{
		"a": "plain",
		"b": ["x", "y"],
		"c": {"text": "wrapped"},
		"d": {"text": ["p"]},
		"e": {"latitude": 1.5, "longitude": -2},
		"f": null,
		"g": {"text": null, "latitude": null}
	}`), &sub))

	assert.Equal(t, "plain", *sub["a"].Text)
	assert.Equal(t, []string{"x", "y"}, sub["b"].Choices)
	assert.Equal(t, "wrapped", *sub["c"].Text)
	assert.Equal(t, []string{"p"}, sub["d"].Choices)
	assert.Equal(t, 1.5, *sub["e"].Latitude)
	assert.Equal(t, -2.0, *sub["e"].Longitude)
	assert.Equal(t, RawAnswer{}, sub["f"])
	assert.Equal(t, RawAnswer{}, sub["g"])

	assert.Error(t, json.Unmarshal([]byte(`{"a": 42}`), &sub))
}

func TestCheckRejectsWrongShape(t *testing.T) {
	tests := []struct {
		name string
		q    model.Question
		raw  RawAnswer
	}{
		{"list for short text", shortQ, RawAnswer{Choices: []string{"a", "b"}}},
		{"list for long text", model.Question{ID: "q-long", Title: "Bio", Type: question.Long}, RawAnswer{Choices: []string{"a"}}},
		{"list for date", dateQ, RawAnswer{Choices: []string{"2024-01-01"}}},
		{"coordinates for text", shortQ, RawAnswer{Latitude: num(1), Longitude: num(2)}},
		{"string for location", locationQ, RawAnswer{Text: str("-23.55,-46.63")}},
		{"list for location", locationQ, RawAnswer{Choices: []string{"-23.55", "-46.63"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Check(tt.q, tt.raw)
			assert.Nil(t, a)
			var verr *model.ValidationError
			require.True(t, errors.As(err, &verr), "optional questions still reject misshapen values")
			assert.Equal(t, tt.q.ID, verr.QuestionID)

			var rerr *model.RequiredFieldError
			assert.False(t, errors.As(err, &rerr))
		})
	}

	a, err := Check(locationQ, RawAnswer{Text: str(" ")})
	assert.NoError(t, err)
	assert.Nil(t, a, "a blank string is no answer")
}
