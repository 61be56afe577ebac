package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"

	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/reconcile"
)

// Store persists forms, responses and accounts. Every multi-row change
// runs in a single transaction.
type Store struct {
	db    *sql.DB
	newID func() string
	now   func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:    db,
		newID: newID,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func newID() string {
	return uuid.Must(uuid.NewV4()).String()
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fail("db.ping", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func fail(op string, err error) error {
	return &model.PersistenceError{Op: op, Err: errors.WithStack(err)}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateForm stores a new form owned by creatorID at version 1.
func (s *Store) CreateForm(ctx context.Context, creatorID string, p model.PreparedForm) (*model.Form, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fail("db.begin_tx", err)
	}
	defer tx.Rollback()

	formID := s.newID()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO form (id, version, title, description, creator_id, created_at)
		VALUES (?, 1, ?, ?, ?, ?)`,
		formID, p.Title, p.Description, creatorID, s.now(),
	)
	if err != nil {
		return nil, fail("db.insert_form", err)
	}

	plan := reconcile.Compute(formID, nil, p.Questions, s.newID)
	if err = applyPlan(ctx, tx, formID, plan); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fail("db.insert_form.commit", err)
	}
	return s.GetForm(ctx, formID, "")
}

// GetForm loads a form with its questions in order. When ownerID is not
// empty a form owned by someone else is reported as not found.
func (s *Store) GetForm(ctx context.Context, id, ownerID string) (*model.Form, error) {
	form, err := loadForm(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if ownerID != "" && form.CreatorID != ownerID {
		return nil, model.NotFound("form", id)
	}
	return form, nil
}

func loadForm(ctx context.Context, q queryer, id string) (*model.Form, error) {
	form := model.Form{}
	var desc sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT id, version, title, description, creator_id, created_at
		FROM form
		WHERE id = ?`,
		id,
	).Scan(&form.ID, &form.Version, &form.Title, &desc, &form.CreatorID, &form.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("form", id)
	}
	if err != nil {
		return nil, fail("db.get_form", err)
	}
	form.Description = nullable(desc)

	rows, err := q.QueryContext(ctx, `
		SELECT id, title, type, is_required, allow_image, ord, options
		FROM question
		WHERE form_id = ?
		ORDER BY ord`,
		id,
	)
	if err != nil {
		return nil, fail("db.get_form.questions", err)
	}
	defer rows.Close()

	form.Questions = []model.Question{}
	for rows.Next() {
		qn := model.Question{FormID: id}
		var opts sql.NullString
		err = rows.Scan(&qn.ID, &qn.Title, &qn.Type, &qn.IsRequired, &qn.AllowImage, &qn.Order, &opts)
		if err != nil {
			return nil, fail("db.get_form.questions.scan", err)
		}
		if opts.Valid && opts.String != "" {
			if err = json.Unmarshal([]byte(opts.String), &qn.Options); err != nil {
				return nil, fail("db.get_form.questions.parse_options", err)
			}
		}
		form.Questions = append(form.Questions, qn)
	}
	if err = rows.Err(); err != nil {
		return nil, fail("db.get_form.questions", err)
	}
	return &form, nil
}

// ListForms returns the creator's forms, newest first, with their response
// counts.
func (s *Store) ListForms(ctx context.Context, creatorID string) ([]model.FormSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			f.id, f.version, f.title, f.description, f.created_at,
			(SELECT COUNT(*) FROM response r WHERE r.form_id = f.id)
		FROM form f
		WHERE f.creator_id = ?
		ORDER BY f.created_at DESC, f.rowid DESC`,
		creatorID,
	)
	if err != nil {
		return nil, fail("db.get_forms", err)
	}
	defer rows.Close()

	forms := []model.FormSummary{}
	for rows.Next() {
		f := model.FormSummary{}
		var desc sql.NullString
		err = rows.Scan(&f.ID, &f.Version, &f.Title, &desc, &f.CreatedAt, &f.ResponseCount)
		if err != nil {
			return nil, fail("db.get_forms.scan", err)
		}
		f.Description = nullable(desc)
		forms = append(forms, f)
	}
	if err = rows.Err(); err != nil {
		return nil, fail("db.get_forms", err)
	}
	return forms, nil
}

// SaveForm replaces the form's title, description and question set in one
// transaction. A non-zero p.Version must match the stored version.
func (s *Store) SaveForm(ctx context.Context, id, ownerID string, p model.PreparedForm) (*model.Form, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fail("db.begin_tx", err)
	}
	defer tx.Rollback()

	version, err := lockForm(ctx, tx, id, ownerID, p.Version)
	if err != nil {
		return nil, err
	}

	err = bumpForm(ctx, tx, id, version, p.Title, p.Description)
	if err != nil {
		return nil, err
	}

	persisted, err := questionIDs(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	plan := reconcile.Compute(id, persisted, p.Questions, s.newID)
	if err = applyPlan(ctx, tx, id, plan); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fail("db.update_form.commit", err)
	}
	return s.GetForm(ctx, id, "")
}

// PatchForm changes title and description only. An empty description
// clears it.
func (s *Store) PatchForm(ctx context.Context, id, ownerID string, p model.FormPatch) (*model.Form, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fail("db.begin_tx", err)
	}
	defer tx.Rollback()

	current, err := loadForm(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if current.CreatorID != ownerID {
		return nil, model.NotFound("form", id)
	}
	if p.Version != 0 && p.Version != current.Version {
		return nil, &model.ConflictError{Resource: "form", ID: id, Version: p.Version}
	}

	title, desc := current.Title, current.Description
	if p.Title != nil {
		title = *p.Title
	}
	if p.Description != nil {
		desc = p.Description
		if *desc == "" {
			desc = nil
		}
	}

	if err = bumpForm(ctx, tx, id, current.Version, title, desc); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fail("db.patch_form.commit", err)
	}
	return s.GetForm(ctx, id, "")
}

// DeleteForm removes the form together with its questions, responses and
// answers.
func (s *Store) DeleteForm(ctx context.Context, id, ownerID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM form WHERE id = ? AND creator_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return fail("db.delete_form", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fail("db.delete_form.verify", err)
	}
	if n < 1 {
		return model.NotFound("form", id)
	}
	return nil
}

// lockForm checks ownership and the expected version, returning the stored
// version.
func lockForm(ctx context.Context, tx *sql.Tx, id, ownerID string, expected int) (int, error) {
	var creatorID string
	var version int
	err := tx.QueryRowContext(ctx, `
		SELECT creator_id, version FROM form WHERE id = ?`,
		id,
	).Scan(&creatorID, &version)
	if errors.Is(err, sql.ErrNoRows) || err == nil && creatorID != ownerID {
		return 0, model.NotFound("form", id)
	}
	if err != nil {
		return 0, fail("db.update_form.get", err)
	}
	if expected != 0 && expected != version {
		return 0, &model.ConflictError{Resource: "form", ID: id, Version: expected}
	}
	return version, nil
}

func bumpForm(ctx context.Context, tx *sql.Tx, id string, version int, title string, desc *string) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE form
		SET
			title = ?,
			description = ?,
			version = version+1
		WHERE	id = ?
			AND version = ?`,
		title,
		desc,
		id,
		version,
	)
	if err != nil {
		return fail("db.update_form", err)
	}
	// optimistic lock
	n, err := res.RowsAffected()
	if err != nil {
		return fail("db.update_form.verify", err)
	}
	if n < 1 {
		return &model.ConflictError{Resource: "form", ID: id, Version: version}
	}
	return nil
}

func questionIDs(ctx context.Context, tx *sql.Tx, formID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM question WHERE form_id = ? ORDER BY ord`,
		formID,
	)
	if err != nil {
		return nil, fail("db.update_form.questions", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, fail("db.update_form.questions.scan", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// applyPlan writes a reconciliation plan. Surviving rows are first moved
// to negative orders so the (form_id, ord) uniqueness holds at every step.
func applyPlan(ctx context.Context, tx *sql.Tx, formID string, plan reconcile.Plan) error {
	if len(plan.Deletes) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			DELETE FROM question WHERE id = ? AND form_id = ?`)
		if err != nil {
			return fail("db.update_form.delete_questions.prepare", err)
		}
		defer stmt.Close()

		for _, id := range plan.Deletes {
			if _, err = stmt.ExecContext(ctx, id, formID); err != nil {
				return fail("db.update_form.delete_questions", errors.Wrapf(err, "question %s", id))
			}
		}
	}

	if len(plan.Updates) > 0 {
		_, err := tx.ExecContext(ctx, `
			UPDATE question SET ord = -1 - ord WHERE form_id = ?`,
			formID,
		)
		if err != nil {
			return fail("db.update_form.park_questions", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			UPDATE question
			SET title = ?, type = ?, is_required = ?, allow_image = ?, ord = ?, options = ?
			WHERE id = ? AND form_id = ?`)
		if err != nil {
			return fail("db.update_form.update_questions.prepare", err)
		}
		defer stmt.Close()

		for _, q := range plan.Updates {
			opts, err := encodeOptions(q.Options)
			if err != nil {
				return fail("db.update_form.update_questions.options", err)
			}
			_, err = stmt.ExecContext(ctx, q.Title, q.Type, q.IsRequired, q.AllowImage, q.Order, opts, q.ID, formID)
			if err != nil {
				return fail("db.update_form.update_questions", errors.Wrapf(err, "question %s", q.ID))
			}
		}
	}

	if len(plan.Creates) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO question (id, form_id, title, type, is_required, allow_image, ord, options)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fail("db.update_form.insert_questions.prepare", err)
		}
		defer stmt.Close()

		for _, q := range plan.Creates {
			opts, err := encodeOptions(q.Options)
			if err != nil {
				return fail("db.update_form.insert_questions.options", err)
			}
			_, err = stmt.ExecContext(ctx, q.ID, formID, q.Title, q.Type, q.IsRequired, q.AllowImage, q.Order, opts)
			if err != nil {
				return fail("db.update_form.insert_questions", errors.Wrapf(err, "question %s", q.ID))
			}
		}
	}
	return nil
}

func encodeOptions(opts []string) (*string, error) {
	if opts == nil {
		return nil, nil
	}
	data, err := json.Marshal(opts)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
