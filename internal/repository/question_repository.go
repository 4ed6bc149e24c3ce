package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oralis/viva-backend/internal/model"
)

// QuestionRepository handles viva bank question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByViva retrieves a viva's bank in insertion order.
func (r *QuestionRepository) ListByViva(ctx context.Context, vivaID uuid.UUID) ([]model.BankQuestion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, viva_id, text, difficulty, topic, created_at
		 FROM viva_questions
		 WHERE viva_id = $1
		 ORDER BY id`, vivaID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.BankQuestion
	for rows.Next() {
		var q model.BankQuestion
		if err := rows.Scan(&q.ID, &q.VivaID, &q.Text, &q.Difficulty, &q.Topic, &q.CreatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// CountByViva returns the number of questions in a viva's bank.
func (r *QuestionRepository) CountByViva(ctx context.Context, vivaID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM viva_questions WHERE viva_id = $1`, vivaID,
	).Scan(&count)
	return count, err
}

// ReplaceForViva swaps a viva's entire bank in one transaction.
func (r *QuestionRepository) ReplaceForViva(ctx context.Context, vivaID uuid.UUID, questions []model.AddQuestionRequest) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM viva_questions WHERE viva_id = $1`, vivaID); err != nil {
		return fmt.Errorf("clear bank: %w", err)
	}

	for _, q := range questions {
		if _, err := tx.Exec(ctx,
			`INSERT INTO viva_questions (viva_id, text, difficulty, topic)
			 VALUES ($1, $2, $3, $4)`,
			vivaID, q.Text, q.Difficulty, q.Topic,
		); err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
	}

	return tx.Commit(ctx)
}
