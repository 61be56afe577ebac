package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mbolis/quick-forms/model"
)

// CreateResponse stores a response and its answers atomically.
func (s *Store) CreateResponse(ctx context.Context, formID, respondentID string, answers []model.Answer) (*model.Response, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fail("db.begin_tx", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM form WHERE id = ?`, formID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("form", formID)
	}
	if err != nil {
		return nil, fail("db.insert_response.get_form", err)
	}

	response := model.Response{
		ID:           s.newID(),
		FormID:       formID,
		RespondentID: respondentID,
		SubmittedAt:  s.now(),
		Answers:      make([]model.Answer, 0, len(answers)),
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO response (id, form_id, respondent_id, submitted_at)
		VALUES (?, ?, ?, ?)`,
		response.ID, formID, respondentID, response.SubmittedAt,
	)
	if err != nil {
		return nil, fail("db.insert_response", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO answer (id, response_id, question_id, answer_text, answer_option, answer_image, answer_location)
		SELECT ?, ?, q.id, ?, ?, ?, ?
		FROM question q
		WHERE q.id = ? AND q.form_id = ?`)
	if err != nil {
		return nil, fail("db.insert_response.answers.prepare", err)
	}
	defer stmt.Close()

	for _, a := range answers {
		a.ID = s.newID()
		a.ResponseID = response.ID
		res, err := stmt.ExecContext(ctx,
			a.ID, a.ResponseID, a.AnswerText, a.AnswerOption, a.AnswerImage, a.AnswerLocation,
			a.QuestionID, formID,
		)
		if err != nil {
			return nil, fail("db.insert_response.answers.insert", errors.Wrapf(err, "question %s", a.QuestionID))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fail("db.insert_response.answers.verify", err)
		}
		if n < 1 {
			// the question was removed after the submission was validated
			return nil, fail("db.insert_response.answers.verify", errors.Errorf("question %s is not part of form %s", a.QuestionID, formID))
		}
		response.Answers = append(response.Answers, a)
	}

	if err = tx.Commit(); err != nil {
		return nil, fail("db.insert_response.commit", err)
	}
	return &response, nil
}

// ResponseFilter bounds a response listing by submission time. From is
// inclusive, To exclusive; zero values leave that side open.
type ResponseFilter struct {
	From time.Time
	To   time.Time
}

// ListResponses returns the form's responses in submission order, each
// with its answers.
func (s *Store) ListResponses(ctx context.Context, formID string, filter ResponseFilter) ([]model.Response, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT
			r.id, r.respondent_id, r.submitted_at,
			a.id, a.question_id, a.answer_text, a.answer_option, a.answer_image, a.answer_location
		FROM response r
		LEFT OUTER JOIN answer a ON (r.id = a.response_id)
		LEFT OUTER JOIN question q ON (q.id = a.question_id)
		WHERE r.form_id = ?`)
	args := []any{formID}
	if !filter.From.IsZero() {
		sb.WriteString(` AND r.submitted_at >= ?`)
		args = append(args, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		sb.WriteString(` AND r.submitted_at < ?`)
		args = append(args, filter.To.UTC())
	}
	sb.WriteString(`
		ORDER BY r.submitted_at, r.rowid, q.ord`)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fail("db.get_responses", err)
	}
	defer rows.Close()

	responses := []model.Response{}
	for rows.Next() {
		r := model.Response{FormID: formID}
		var answerID, questionID, text, option, image, location sql.NullString
		err = rows.Scan(
			&r.ID, &r.RespondentID, &r.SubmittedAt,
			&answerID, &questionID, &text, &option, &image, &location,
		)
		if err != nil {
			return nil, fail("db.get_responses.scan", err)
		}

		lastIdx := len(responses) - 1
		if lastIdx < 0 || responses[lastIdx].ID != r.ID {
			r.Answers = []model.Answer{}
			responses = append(responses, r)
			lastIdx++
		}
		if !answerID.Valid {
			continue
		}
		responses[lastIdx].Answers = append(responses[lastIdx].Answers, model.Answer{
			ID:             answerID.String,
			ResponseID:     r.ID,
			QuestionID:     questionID.String,
			AnswerText:     nullable(text),
			AnswerOption:   nullable(option),
			AnswerImage:    nullable(image),
			AnswerLocation: nullable(location),
		})
	}
	if err = rows.Err(); err != nil {
		return nil, fail("db.get_responses", err)
	}
	return responses, nil
}

// CountResponses returns how many responses the form has received.
func (s *Store) CountResponses(ctx context.Context, formID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM response WHERE form_id = ?`,
		formID,
	).Scan(&n)
	if err != nil {
		return 0, fail("db.count_responses", err)
	}
	return n, nil
}
