package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oralis/viva-backend/internal/model"
)

// VivaRepository handles viva data access.
type VivaRepository struct {
	pool *pgxpool.Pool
}

// NewVivaRepository creates a new VivaRepository.
func NewVivaRepository(pool *pgxpool.Pool) *VivaRepository {
	return &VivaRepository{pool: pool}
}

const vivaColumns = `id, title, subject, author_id, max_questions, entry_token,
	scheduled_start, scheduled_end,
	(SELECT COUNT(*) FROM viva_questions q WHERE q.viva_id = vivas.id) AS question_count,
	status, created_at, updated_at`

func scanViva(row interface{ Scan(dest ...any) error }) (*model.Viva, error) {
	v := &model.Viva{}
	err := row.Scan(&v.ID, &v.Title, &v.Subject, &v.AuthorID, &v.MaxQuestions,
		&v.EntryToken, &v.ScheduledStart, &v.ScheduledEnd, &v.QuestionCount,
		&v.Status, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Create inserts a new draft viva.
func (r *VivaRepository) Create(ctx context.Context, v *model.Viva) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO vivas (title, subject, author_id, max_questions, entry_token, scheduled_start, scheduled_end, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		v.Title, v.Subject, v.AuthorID, v.MaxQuestions, v.EntryToken,
		v.ScheduledStart, v.ScheduledEnd, model.VivaStatusDraft,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
}

// GetByID retrieves a viva by ID.
func (r *VivaRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Viva, error) {
	return scanViva(r.pool.QueryRow(ctx,
		`SELECT `+vivaColumns+` FROM vivas WHERE id = $1`, id))
}

// ListByAuthor retrieves vivas with pagination. authorID 0 lists all.
func (r *VivaRepository) ListByAuthor(ctx context.Context, authorID, page, perPage int) ([]model.Viva, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM vivas WHERE ($1 = 0 OR author_id = $1)`, authorID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count vivas: %w", err)
	}

	offset := (page - 1) * perPage
	rows, err := r.pool.Query(ctx,
		`SELECT `+vivaColumns+`
		 FROM vivas
		 WHERE ($1 = 0 OR author_id = $1)
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, authorID, perPage, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var vivas []model.Viva
	for rows.Next() {
		v, err := scanViva(rows)
		if err != nil {
			return nil, 0, err
		}
		vivas = append(vivas, *v)
	}
	return vivas, total, rows.Err()
}

// ListPublished retrieves all published vivas for the student lobby.
func (r *VivaRepository) ListPublished(ctx context.Context) ([]model.Viva, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+vivaColumns+`
		 FROM vivas
		 WHERE status = $1
		 ORDER BY created_at DESC`, model.VivaStatusPublished,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vivas []model.Viva
	for rows.Next() {
		v, err := scanViva(rows)
		if err != nil {
			return nil, err
		}
		vivas = append(vivas, *v)
	}
	return vivas, rows.Err()
}

// Update updates an existing viva's editable fields.
func (r *VivaRepository) Update(ctx context.Context, v *model.Viva) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE vivas
		 SET title = $1, subject = $2, max_questions = $3, entry_token = $4,
		     scheduled_start = $5, scheduled_end = $6, updated_at = NOW()
		 WHERE id = $7`,
		v.Title, v.Subject, v.MaxQuestions, v.EntryToken,
		v.ScheduledStart, v.ScheduledEnd, v.ID)
	return err
}

// UpdateStatus transitions a viva to a new status.
func (r *VivaRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.VivaStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE vivas SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	return err
}

// Delete removes a viva and, via cascade, its questions and sessions.
func (r *VivaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM vivas WHERE id = $1`, id)
	return err
}
