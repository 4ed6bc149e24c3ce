package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oralis/viva-backend/internal/model"
)

// SessionRepository handles viva session rows.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create inserts a session row if the student has none for this viva yet.
// Returns the existing row when the student already joined, so repeated
// join calls land on the same session.
func (r *SessionRepository) Create(ctx context.Context, session *model.VivaSession) (*model.VivaSession, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO viva_sessions (id, viva_id, student_id, status, started_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (viva_id, student_id) DO NOTHING
		 RETURNING id, started_at`,
		session.ID, session.VivaID, session.StudentID, session.Status,
	).Scan(&session.ID, &session.StartedAt)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	// conflict: the student already joined, hand back the existing row
	return r.GetByVivaAndStudent(ctx, session.VivaID, session.StudentID)
}

// GetByVivaAndStudent fetches the session a student holds for a viva.
// Returns nil without error when no session exists.
func (r *SessionRepository) GetByVivaAndStudent(ctx context.Context, vivaID uuid.UUID, studentID int) (*model.VivaSession, error) {
	var s model.VivaSession
	var topicMastery []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, viva_id, student_id, status, ability, topic_mastery,
		        questions_asked, started_at, finished_at
		 FROM viva_sessions
		 WHERE viva_id = $1 AND student_id = $2`,
		vivaID, studentID,
	).Scan(&s.ID, &s.VivaID, &s.StudentID, &s.Status, &s.FinalAbility,
		&topicMastery, &s.QuestionsAsked, &s.StartedAt, &s.FinishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if len(topicMastery) > 0 {
		if err := json.Unmarshal(topicMastery, &s.TopicMastery); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// GetByID fetches a session row by its id. Returns nil without error when
// no session exists.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.VivaSession, error) {
	var s model.VivaSession
	var topicMastery []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, viva_id, student_id, status, ability, topic_mastery,
		        questions_asked, started_at, finished_at
		 FROM viva_sessions
		 WHERE id = $1`, id,
	).Scan(&s.ID, &s.VivaID, &s.StudentID, &s.Status, &s.FinalAbility,
		&topicMastery, &s.QuestionsAsked, &s.StartedAt, &s.FinishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if len(topicMastery) > 0 {
		if err := json.Unmarshal(topicMastery, &s.TopicMastery); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// ListInProgressIDs returns the ids of sessions still marked IN_PROGRESS,
// used at startup to reconcile against the live store.
func (r *SessionRepository) ListInProgressIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM viva_sessions WHERE status = $1`, model.SessionStatusInProgress,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id.String())
	}
	return ids, rows.Err()
}

// FinalizeBatch persists a batch of finished session results in one statement.
func (r *SessionRepository) FinalizeBatch(ctx context.Context, results []model.SessionResult) error {
	if len(results) == 0 {
		return nil
	}

	ids := make([]string, len(results))
	statuses := make([]string, len(results))
	abilities := make([]float64, len(results))
	masteries := make([][]byte, len(results))
	asked := make([]int, len(results))
	finished := make([]time.Time, len(results))
	for i, res := range results {
		ids[i] = res.SessionID
		statuses[i] = string(res.Status)
		abilities[i] = res.Ability
		mastery, err := json.Marshal(res.TopicMastery)
		if err != nil {
			return err
		}
		masteries[i] = mastery
		asked[i] = res.QuestionsAsked
		finished[i] = res.FinishedAt
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE viva_sessions AS s
		 SET status = u.status,
		     ability = u.ability,
		     topic_mastery = u.topic_mastery,
		     questions_asked = u.questions_asked,
		     finished_at = u.finished_at
		 FROM (
		   SELECT UNNEST($1::uuid[])        AS id,
		          UNNEST($2::text[])        AS status,
		          UNNEST($3::float8[])      AS ability,
		          UNNEST($4::jsonb[])       AS topic_mastery,
		          UNNEST($5::int[])         AS questions_asked,
		          UNNEST($6::timestamptz[]) AS finished_at
		 ) AS u
		 WHERE s.id = u.id`,
		ids, statuses, abilities, masteries, asked, finished,
	)
	if err != nil {
		return err
	}

	for _, res := range results {
		for _, ans := range res.History {
			if _, err := tx.Exec(ctx,
				`INSERT INTO session_answers
				   (session_id, question_id, raw_score, adjusted_score, correct, topic, ordinal)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)
				 ON CONFLICT (session_id, ordinal) DO NOTHING`,
				res.SessionID, ans.QuestionID, ans.RawScore, ans.AdjustedScore,
				ans.Correct, ans.Topic, ans.Ordinal,
			); err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

// Finalize persists a single finished session result.
func (r *SessionRepository) Finalize(ctx context.Context, result model.SessionResult) error {
	return r.FinalizeBatch(ctx, []model.SessionResult{result})
}

// ListResultsByViva returns session rows for an examiner's results view,
// newest first.
func (r *SessionRepository) ListResultsByViva(ctx context.Context, vivaID uuid.UUID, page, perPage int) ([]model.VivaResult, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM viva_sessions WHERE viva_id = $1`, vivaID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.student_id, st.student_number, st.name, s.status,
		        s.ability, s.topic_mastery, s.questions_asked, s.started_at, s.finished_at
		 FROM viva_sessions s
		 JOIN students st ON st.id = s.student_id
		 WHERE s.viva_id = $1
		 ORDER BY s.started_at DESC
		 LIMIT $2 OFFSET $3`,
		vivaID, perPage, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []model.VivaResult
	for rows.Next() {
		var res model.VivaResult
		var topicMastery []byte
		if err := rows.Scan(&res.SessionID, &res.StudentID, &res.StudentNumber,
			&res.StudentName, &res.Status, &res.Ability, &topicMastery,
			&res.QuestionsAsked, &res.StartedAt, &res.FinishedAt); err != nil {
			return nil, 0, err
		}
		if len(topicMastery) > 0 {
			if err := json.Unmarshal(topicMastery, &res.TopicMastery); err != nil {
				return nil, 0, err
			}
		}
		results = append(results, res)
	}
	return results, total, rows.Err()
}
