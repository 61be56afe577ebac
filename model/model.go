package model

import (
	"time"

	"github.com/mbolis/quick-forms/question"
)

// Anonymous is the respondent id recorded for unauthenticated submissions.
const Anonymous = "anonymous"

type Form struct {
	ID          string     `json:"id"`
	Version     int        `json:"version"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	CreatorID   string     `json:"creatorId"`
	CreatedAt   time.Time  `json:"createdAt"`
	Questions   []Question `json:"questions,omitempty"`
}

// FormSummary is a form listing entry; questions are not loaded.
type FormSummary struct {
	ID            string    `json:"id"`
	Version       int       `json:"version"`
	Title         string    `json:"title"`
	Description   *string   `json:"description,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	ResponseCount int       `json:"responseCount"`
}

type Question struct {
	ID         string        `json:"id"`
	FormID     string        `json:"formId,omitempty"`
	Title      string        `json:"title"`
	Type       question.Type `json:"type"`
	IsRequired bool          `json:"isRequired"`
	AllowImage bool          `json:"allowImage"`
	Order      int           `json:"order"`
	Options    []string      `json:"options,omitempty"`
}

// HasOption reports whether opt is one of the question's options.
func (q Question) HasOption(opt string) bool {
	for _, o := range q.Options {
		if o == opt {
			return true
		}
	}
	return false
}

type Response struct {
	ID           string    `json:"id"`
	FormID       string    `json:"formId"`
	RespondentID string    `json:"respondentId"`
	SubmittedAt  time.Time `json:"submittedAt"`
	Answers      []Answer  `json:"answers,omitempty"`
}

// Answer holds one question's value within a response. Which payload fields
// are set depends on the question type.
type Answer struct {
	ID             string  `json:"id,omitempty"`
	ResponseID     string  `json:"responseId,omitempty"`
	QuestionID     string  `json:"questionId"`
	AnswerText     *string `json:"answerText,omitempty"`
	AnswerOption   *string `json:"answerOption,omitempty"`
	AnswerImage    *string `json:"answerImage,omitempty"`
	AnswerLocation *string `json:"answerLocation,omitempty"`
}

// Empty reports whether no payload field is set.
func (a Answer) Empty() bool {
	return a.AnswerText == nil && a.AnswerOption == nil && a.AnswerImage == nil && a.AnswerLocation == nil
}

// AnswerFor returns the response's answer to questionID, if any.
func (r Response) AnswerFor(questionID string) (Answer, bool) {
	for _, a := range r.Answers {
		if a.QuestionID == questionID {
			return a, true
		}
	}
	return Answer{}, false
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}
