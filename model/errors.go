package model

import "fmt"

// ValidationError reports malformed or missing input. Field names the
// offending input (e.g. "title", "questions[2].options"); QuestionID is set
// when the failure belongs to a persisted question.
type ValidationError struct {
	QuestionID string
	Field      string
	Message    string
}

func (e *ValidationError) Error() string {
	switch {
	case e.QuestionID != "":
		return fmt.Sprintf("question %s: %s", e.QuestionID, e.Message)
	case e.Field != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func InvalidAnswer(q Question, format string, args ...any) *ValidationError {
	return &ValidationError{QuestionID: q.ID, Field: q.Title, Message: fmt.Sprintf(format, args...)}
}

// RequiredFieldError is a ValidationError for a required question left blank.
type RequiredFieldError struct {
	ValidationError
}

func (e *RequiredFieldError) Unwrap() error { return &e.ValidationError }

func RequiredField(q Question) *RequiredFieldError {
	return &RequiredFieldError{ValidationError{
		QuestionID: q.ID,
		Field:      q.Title,
		Message:    fmt.Sprintf("an answer is required for %q", q.Title),
	}}
}

// RequiredImageError is a ValidationError for a required image left out.
type RequiredImageError struct {
	ValidationError
}

func (e *RequiredImageError) Unwrap() error { return &e.ValidationError }

func RequiredImage(q Question) *RequiredImageError {
	return &RequiredImageError{ValidationError{
		QuestionID: q.ID,
		Field:      q.Title,
		Message:    fmt.Sprintf("an image is required for %q", q.Title),
	}}
}

// NotFoundError is also returned when a resource exists but belongs to
// someone else.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func NotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ConflictError reports a stale revision on a form save.
type ConflictError struct {
	Resource string
	ID       string
	Version  int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s was modified since version %d", e.Resource, e.ID, e.Version)
}

type ImageUploadError struct {
	QuestionID string
	Err        error
}

func (e *ImageUploadError) Error() string {
	return fmt.Sprintf("image upload for question %s failed: %v", e.QuestionID, e.Err)
}

func (e *ImageUploadError) Unwrap() error { return e.Err }

// PersistenceError wraps a storage failure. Op is the dotted code of the
// failed step, e.g. "db.update_form.commit".
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
