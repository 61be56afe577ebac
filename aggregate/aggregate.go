// Package aggregate summarizes a form's responses question by question.
package aggregate

import (
	"sort"

	"github.com/mbolis/quick-forms/answer"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/question"
)

type Summary struct {
	FormID        string          `json:"formId"`
	ResponseCount int             `json:"responseCount"`
	PerQuestion   map[string]View `json:"perQuestion"`
}

// View is the aggregate of one question. Only the field matching the
// question's payload kind is filled: Texts for text and date questions,
// Histogram for choices, Points for locations, Images for uploads.
type View struct {
	QuestionID           string          `json:"questionId"`
	Type                 question.Type   `json:"type"`
	Answered             int             `json:"answered"`
	Texts                []TextEntry     `json:"texts,omitempty"`
	Histogram            map[string]int  `json:"histogram,omitempty"`
	Points               []LocationEntry `json:"points,omitempty"`
	Images               []*string       `json:"images,omitempty"`
	MalformedAnswerCount int             `json:"malformedAnswerCount"`
}

type TextEntry struct {
	ResponseID string  `json:"responseId"`
	Text       string  `json:"text"`
	Image      *string `json:"image,omitempty"`
}

type LocationEntry struct {
	ResponseID string `json:"responseId"`
	answer.Point
	Image *string `json:"image,omitempty"`
}

// Aggregate builds the per-question views of form over responses, taken in
// submission order. Stored answers that cannot be decoded are counted in
// MalformedAnswerCount and otherwise ignored.
func Aggregate(form model.Form, responses []model.Response) Summary {
	ordered := make([]model.Response, len(responses))
	copy(ordered, responses)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SubmittedAt.Before(ordered[j].SubmittedAt)
	})

	summary := Summary{
		FormID:        form.ID,
		ResponseCount: len(ordered),
		PerQuestion:   make(map[string]View, len(form.Questions)),
	}
	for _, q := range form.Questions {
		summary.PerQuestion[q.ID] = aggregateQuestion(q, ordered)
	}
	return summary
}

func aggregateQuestion(q model.Question, responses []model.Response) View {
	view := View{QuestionID: q.ID, Type: q.Type}
	kind := question.RequiredPayloadKind(q.Type)

	switch kind {
	case question.PayloadOptionSingle, question.PayloadOptionMulti:
		view.Histogram = map[string]int{}
	case question.PayloadImage:
		view.Images = make([]*string, 0, len(responses))
	}

	for _, r := range responses {
		a, ok := r.AnswerFor(q.ID)
		if !ok {
			if kind == question.PayloadImage {
				view.Images = append(view.Images, nil)
			}
			continue
		}
		if a.Empty() {
			view.MalformedAnswerCount++
			if kind == question.PayloadImage {
				view.Images = append(view.Images, nil)
			}
			continue
		}
		view.Answered++

		switch kind {
		case question.PayloadText:
			view.addText(r.ID, a)
		case question.PayloadOptionSingle:
			view.addSingle(q, a)
		case question.PayloadOptionMulti:
			view.addMulti(a)
		case question.PayloadLocation:
			view.addLocation(r.ID, a)
		case question.PayloadImage:
			if a.AnswerImage == nil {
				view.malformed()
			}
			view.Images = append(view.Images, a.AnswerImage)
		}
	}
	return view
}

func (v *View) addText(responseID string, a model.Answer) {
	if a.AnswerText == nil && a.AnswerImage == nil {
		v.malformed()
		return
	}
	entry := TextEntry{ResponseID: responseID, Image: a.AnswerImage}
	if a.AnswerText != nil {
		entry.Text = *a.AnswerText
	}
	v.Texts = append(v.Texts, entry)
}

// missing reports a payload field left unset. An answer carrying only an
// attachment is still a valid answer; one carrying neither is malformed.
func (v *View) missing(field *string, a model.Answer) bool {
	if field != nil {
		return false
	}
	if a.AnswerImage == nil {
		v.malformed()
	}
	return true
}

func (v *View) addSingle(q model.Question, a model.Answer) {
	if v.missing(a.AnswerOption, a) {
		return
	}
	// values left over from a type or option change are not counted
	if !q.HasOption(*a.AnswerOption) {
		v.malformed()
		return
	}
	v.Histogram[*a.AnswerOption]++
}

func (v *View) addMulti(a model.Answer) {
	if v.missing(a.AnswerOption, a) {
		return
	}
	choices, err := answer.DecodeChoices(*a.AnswerOption)
	if err != nil {
		v.malformed()
		return
	}
	seen := make(map[string]bool, len(choices))
	for _, c := range choices {
		if seen[c] {
			continue
		}
		seen[c] = true
		v.Histogram[c]++
	}
}

func (v *View) addLocation(responseID string, a model.Answer) {
	if v.missing(a.AnswerLocation, a) {
		return
	}
	p, err := answer.DecodeLocation(*a.AnswerLocation)
	if err != nil {
		v.malformed()
		return
	}
	v.Points = append(v.Points, LocationEntry{ResponseID: responseID, Point: p, Image: a.AnswerImage})
}

func (v *View) malformed() {
	v.Answered--
	v.MalformedAnswerCount++
}
