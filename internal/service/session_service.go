package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/oralis/viva-backend/internal/adaptive"
	"github.com/oralis/viva-backend/internal/model"
	"github.com/oralis/viva-backend/internal/store"
	"github.com/oralis/viva-backend/internal/websocket"
)

// Session flow errors.
var (
	ErrVivaNotFound      = errors.New("viva not found")
	ErrVivaNotAvailable  = errors.New("viva is not available for joining")
	ErrInvalidEntryToken = errors.New("invalid entry token")
	ErrSessionNotFound   = errors.New("no session for this viva, join first")
	ErrSessionCompleted  = errors.New("session is already completed")
)

// VivaSource provides viva metadata and cached banks. Implemented by
// VivaService.
type VivaSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Viva, error)
	GetBank(ctx context.Context, vivaID uuid.UUID) (*model.VivaBank, error)
}

// SessionRecorder persists session rows. Implemented by
// repository.SessionRepository.
type SessionRecorder interface {
	Create(ctx context.Context, session *model.VivaSession) (*model.VivaSession, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.VivaSession, error)
	GetByVivaAndStudent(ctx context.Context, vivaID uuid.UUID, studentID int) (*model.VivaSession, error)
	ListInProgressIDs(ctx context.Context) ([]string, error)
}

// JoinResult is what a student gets back from joining (or rejoining) a viva.
type JoinResult struct {
	SessionID       string                    `json:"session_id"`
	VivaTitle       string                    `json:"viva_title"`
	MaxQuestions    int                       `json:"max_questions"`
	QuestionsAsked  int                       `json:"questions_asked"`
	IsComplete      bool                      `json:"is_complete"`
	CurrentQuestion *model.QuestionForStudent `json:"current_question,omitempty"`
}

// SessionService drives the adaptive session flow: join, submit, state. The
// live engine state lives in the session store; this service glues it to
// viva metadata, the session rows, and the result pipeline.
type SessionService struct {
	vivas    VivaSource
	recorder SessionRecorder
	sessions *store.SessionStore
	sink     ResultSink
	log      zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	vivas VivaSource,
	recorder SessionRecorder,
	sessions *store.SessionStore,
	sink ResultSink,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		vivas:    vivas,
		recorder: recorder,
		sessions: sessions,
		sink:     sink,
		log:      log.With().Str("component", "session_service").Logger(),
	}
}

// Join validates the entry token and schedule, then creates (or resumes) the
// student's session for this viva. Joining is idempotent: a second join lands
// on the same session with its state intact.
func (s *SessionService) Join(ctx context.Context, vivaID uuid.UUID, studentID int, entryToken string) (*JoinResult, error) {
	viva, err := s.vivas.GetByID(ctx, vivaID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVivaNotFound
		}
		return nil, fmt.Errorf("get viva: %w", err)
	}

	if viva.Status != model.VivaStatusPublished {
		return nil, ErrVivaNotAvailable
	}
	now := time.Now()
	if viva.ScheduledStart != nil && now.Before(*viva.ScheduledStart) {
		return nil, ErrVivaNotAvailable
	}
	if viva.ScheduledEnd != nil && now.After(*viva.ScheduledEnd) {
		return nil, ErrVivaNotAvailable
	}
	if viva.EntryToken != "" && viva.EntryToken != entryToken {
		return nil, ErrInvalidEntryToken
	}

	row, err := s.recorder.Create(ctx, &model.VivaSession{
		ID:        uuid.New(),
		VivaID:    vivaID,
		StudentID: studentID,
		Status:    model.SessionStatusInProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	result := &JoinResult{
		SessionID:    row.ID.String(),
		VivaTitle:    viva.Title,
		MaxQuestions: viva.MaxQuestions,
	}

	// Already finished: return the final state, never a fresh session.
	if row.Status != model.SessionStatusInProgress {
		result.QuestionsAsked = row.QuestionsAsked
		result.IsComplete = true
		return result, nil
	}

	snap, err := s.sessions.Get(ctx, row.ID.String())
	if errors.Is(err, store.ErrNotFound) {
		snap, err = s.startEngine(ctx, viva, row)
	}
	if err != nil {
		return nil, err
	}

	result.MaxQuestions = snap.MaxQuestions
	result.QuestionsAsked = snap.QuestionsAsked
	result.IsComplete = snap.IsComplete
	result.CurrentQuestion = model.StudentView(snap.Current)
	return result, nil
}

// startEngine builds a fresh adaptive session from the cached bank and
// registers it in the store. Also the recovery path after a restart that
// lost both memory and the Redis snapshot: progress restarts from zero.
func (s *SessionService) startEngine(ctx context.Context, viva *model.Viva, row *model.VivaSession) (adaptive.Snapshot, error) {
	bank, err := s.vivas.GetBank(ctx, viva.ID)
	if err != nil {
		return adaptive.Snapshot{}, fmt.Errorf("get bank: %w", err)
	}

	engine, err := adaptive.NewSession(row.ID.String(), strconv.Itoa(row.StudentID), bank.Questions, bank.MaxQuestions)
	if err != nil {
		return adaptive.Snapshot{}, fmt.Errorf("new session: %w", err)
	}
	if err := s.sessions.Put(ctx, engine); err != nil {
		return adaptive.Snapshot{}, fmt.Errorf("store session: %w", err)
	}

	if err := s.sink.PublishMonitorEvent(ctx, viva.ID.String(), websocket.MonitorEvent{
		Event:     websocket.EventSessionStarted,
		SessionID: row.ID.String(),
		StudentID: row.StudentID,
	}); err != nil {
		s.log.Warn().Err(err).Str("session_id", row.ID.String()).Msg("failed to publish start event")
	}

	s.log.Info().
		Str("session_id", row.ID.String()).
		Str("viva_id", viva.ID.String()).
		Int("student_id", row.StudentID).
		Msg("Session started")
	return engine.Snapshot(), nil
}

// SubmitAnswer scores one answer against the student's live session for this
// viva. The whole pipeline runs under the session lock, so concurrent
// submits for the same session serialize and at most one wins per question.
func (s *SessionService) SubmitAnswer(ctx context.Context, vivaID uuid.UUID, studentID int, req model.SubmitAnswerRequest) (*model.SubmitAnswerResponse, error) {
	row, err := s.recorder.GetByVivaAndStudent(ctx, vivaID, studentID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if row == nil {
		return nil, ErrSessionNotFound
	}
	if row.Status != model.SessionStatusInProgress {
		return nil, ErrSessionCompleted
	}

	var (
		engineRes *adaptive.Result
		asked     int
		final     *model.SessionResult
	)
	err = s.sessions.WithSession(ctx, row.ID.String(), func(sess *adaptive.Session) error {
		res, err := sess.SubmitAnswer(req.QuestionID, *req.RawScore)
		if err != nil {
			return err
		}
		engineRes = res
		asked = sess.QuestionsAsked
		if res.IsComplete {
			final = buildResult(row, sess, model.SessionStatusCompleted)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	correct := engineRes.Feedback.Correct
	ability := engineRes.Feedback.Ability
	if err := s.sink.PublishMonitorEvent(ctx, vivaID.String(), websocket.MonitorEvent{
		Event:          websocket.EventAnswerScored,
		SessionID:      row.ID.String(),
		StudentID:      studentID,
		QuestionsAsked: asked,
		Topic:          engineRes.Feedback.Topic,
		Correct:        &correct,
		Ability:        &ability,
	}); err != nil {
		s.log.Warn().Err(err).Str("session_id", row.ID.String()).Msg("failed to publish score event")
	}

	if final != nil {
		s.finishSession(ctx, row.ID.String(), vivaID.String(), *final)
	}

	return &model.SubmitAnswerResponse{
		Feedback:     engineRes.Feedback,
		NextQuestion: model.StudentView(engineRes.NextQuestion),
		IsComplete:   engineRes.IsComplete,
	}, nil
}

// GetState returns the current session state for reconnect/refresh. For a
// finished session the final row is served; for a live one, the store.
func (s *SessionService) GetState(ctx context.Context, vivaID uuid.UUID, studentID int) (*model.SessionStateResponse, error) {
	row, err := s.recorder.GetByVivaAndStudent(ctx, vivaID, studentID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if row == nil {
		return nil, ErrSessionNotFound
	}

	if row.Status != model.SessionStatusInProgress {
		state := &model.SessionStateResponse{
			SessionID:      row.ID.String(),
			TopicMastery:   row.TopicMastery,
			QuestionsAsked: row.QuestionsAsked,
			IsComplete:     true,
		}
		if row.FinalAbility != nil {
			state.Ability = *row.FinalAbility
		}
		return state, nil
	}

	snap, err := s.sessions.Get(ctx, row.ID.String())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	return &model.SessionStateResponse{
		SessionID:       row.ID.String(),
		Ability:         snap.Ability,
		TopicMastery:    snap.TopicMastery,
		QuestionsAsked:  snap.QuestionsAsked,
		MaxQuestions:    snap.MaxQuestions,
		IsComplete:      snap.IsComplete,
		CurrentQuestion: model.StudentView(snap.Current),
	}, nil
}

// RecoverInProgress pulls sessions that were live before a restart back into
// the store from their Redis snapshots, so the eviction sweep tracks them
// again. Rows whose snapshot is gone stay untouched; the student's next join
// restarts them from zero. Returns the number of sessions recovered.
func (s *SessionService) RecoverInProgress(ctx context.Context) int {
	ids, err := s.recorder.ListInProgressIDs(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to list in-progress sessions")
		return 0
	}

	recovered := 0
	for _, id := range ids {
		if _, err := s.sessions.Get(ctx, id); err == nil {
			recovered++
		}
	}
	if recovered > 0 {
		s.log.Info().Int("count", recovered).Msg("Live sessions recovered")
	}
	return recovered
}

// AbandonExpired sweeps sessions idle past the store TTL, queues them as
// ABANDONED with whatever progress they had, and drops them from the store.
// Called periodically by the eviction worker.
func (s *SessionService) AbandonExpired(ctx context.Context) int {
	expired := s.sessions.Expired(time.Now())
	abandoned := 0

	for _, sessionID := range expired {
		id, err := uuid.Parse(sessionID)
		if err != nil {
			s.sessions.Remove(ctx, sessionID)
			continue
		}

		row, err := s.recorder.GetByID(ctx, id)
		if err != nil || row == nil {
			s.log.Warn().Err(err).Str("session_id", sessionID).Msg("expired session has no row, dropping")
			s.sessions.Remove(ctx, sessionID)
			continue
		}

		var final *model.SessionResult
		err = s.sessions.WithSession(ctx, sessionID, func(sess *adaptive.Session) error {
			if !sess.IsComplete() {
				final = buildResult(row, sess, model.SessionStatusAbandoned)
			}
			return nil
		})
		if err != nil {
			s.log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to read expired session")
			continue
		}

		if final != nil {
			s.finishSession(ctx, sessionID, row.VivaID.String(), *final)
			abandoned++
		} else {
			s.sessions.Remove(ctx, sessionID)
		}
	}

	return abandoned
}

// finishSession queues the final result, announces it, and drops the live
// state. The store entry is removed only after a successful enqueue, so a
// Redis hiccup leaves the session to be retried on the next sweep.
func (s *SessionService) finishSession(ctx context.Context, sessionID, vivaID string, final model.SessionResult) {
	if err := s.sink.EnqueueResult(ctx, final); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("failed to enqueue result")
		return
	}

	event := websocket.EventSessionCompleted
	if final.Status == model.SessionStatusAbandoned {
		event = websocket.EventSessionAbandoned
	}
	if err := s.sink.PublishMonitorEvent(ctx, vivaID, websocket.MonitorEvent{
		Event:          event,
		SessionID:      sessionID,
		StudentID:      final.StudentID,
		QuestionsAsked: final.QuestionsAsked,
	}); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to publish finish event")
	}

	s.sessions.Remove(ctx, sessionID)
	s.log.Info().
		Str("session_id", sessionID).
		Str("status", string(final.Status)).
		Int("questions_asked", final.QuestionsAsked).
		Msg("Session finished")
}

func buildResult(row *model.VivaSession, sess *adaptive.Session, status model.SessionStatus) *model.SessionResult {
	history := make([]adaptive.AnswerRecord, len(sess.Model.History))
	copy(history, sess.Model.History)

	return &model.SessionResult{
		SessionID:      sess.ID,
		VivaID:         row.VivaID.String(),
		StudentID:      row.StudentID,
		Status:         status,
		Ability:        adaptive.ClampAbility(sess.Model.Ability),
		TopicMastery:   sess.Model.MasterySnapshot(),
		QuestionsAsked: sess.QuestionsAsked,
		FinishedAt:     time.Now(),
		History:        history,
	}
}
