package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oralis/viva-backend/internal/adaptive"
	"github.com/oralis/viva-backend/internal/model"
	"github.com/oralis/viva-backend/internal/store"
	"github.com/oralis/viva-backend/internal/websocket"
)

type mockVivaSource struct{ mock.Mock }

func (m *mockVivaSource) GetByID(ctx context.Context, id uuid.UUID) (*model.Viva, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*model.Viva), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVivaSource) GetBank(ctx context.Context, vivaID uuid.UUID) (*model.VivaBank, error) {
	args := m.Called(ctx, vivaID)
	if v := args.Get(0); v != nil {
		return v.(*model.VivaBank), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSessionRecorder struct{ mock.Mock }

func (m *mockSessionRecorder) Create(ctx context.Context, session *model.VivaSession) (*model.VivaSession, error) {
	args := m.Called(ctx, session)
	if v := args.Get(0); v != nil {
		return v.(*model.VivaSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionRecorder) GetByID(ctx context.Context, id uuid.UUID) (*model.VivaSession, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*model.VivaSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionRecorder) GetByVivaAndStudent(ctx context.Context, vivaID uuid.UUID, studentID int) (*model.VivaSession, error) {
	args := m.Called(ctx, vivaID, studentID)
	if v := args.Get(0); v != nil {
		return v.(*model.VivaSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionRecorder) ListInProgressIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockResultSink struct{ mock.Mock }

func (m *mockResultSink) EnqueueResult(ctx context.Context, result model.SessionResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *mockResultSink) PublishMonitorEvent(ctx context.Context, vivaID string, event websocket.MonitorEvent) error {
	args := m.Called(ctx, vivaID, event)
	return args.Error(0)
}

type sessionFixture struct {
	vivas    *mockVivaSource
	recorder *mockSessionRecorder
	sink     *mockResultSink
	store    *store.SessionStore
	svc      *SessionService

	vivaID    uuid.UUID
	sessionID uuid.UUID
	viva      *model.Viva
	bank      *model.VivaBank
	row       *model.VivaSession
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	f := &sessionFixture{
		vivas:    &mockVivaSource{},
		recorder: &mockSessionRecorder{},
		sink:     &mockResultSink{},
		store:    store.NewSessionStore(nil, time.Hour),
	}
	f.svc = NewSessionService(f.vivas, f.recorder, f.store, f.sink, zerolog.Nop())

	f.vivaID = uuid.New()
	f.sessionID = uuid.New()
	f.viva = &model.Viva{
		ID:           f.vivaID,
		Title:        "Operating Systems Viva",
		AuthorID:     1,
		MaxQuestions: 3,
		EntryToken:   "OSV1",
		Status:       model.VivaStatusPublished,
	}
	f.bank = &model.VivaBank{
		VivaID:       f.vivaID,
		Title:        f.viva.Title,
		MaxQuestions: 3,
		Questions: []adaptive.Question{
			{ID: 1, Text: "Explain process isolation.", Difficulty: -1.2, Topic: "os"},
			{ID: 2, Text: "Walk through a page fault.", Difficulty: 0.4, Topic: "os"},
			{ID: 3, Text: "Compare TCP and UDP.", Difficulty: 0.0, Topic: "networking"},
			{ID: 4, Text: "What does a three-way handshake establish?", Difficulty: 1.1, Topic: "networking"},
			{ID: 5, Text: "Describe ARP resolution.", Difficulty: 2.0, Topic: "networking"},
		},
	}
	f.row = &model.VivaSession{
		ID:        f.sessionID,
		VivaID:    f.vivaID,
		StudentID: 42,
		Status:    model.SessionStatusInProgress,
		StartedAt: time.Now(),
	}
	return f
}

func TestJoinStartsSessionWithEasiestQuestion(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.vivas.On("GetByID", mock.Anything, f.vivaID).Return(f.viva, nil)
	f.vivas.On("GetBank", mock.Anything, f.vivaID).Return(f.bank, nil)
	f.recorder.On("Create", mock.Anything, mock.AnythingOfType("*model.VivaSession")).Return(f.row, nil)
	f.sink.On("PublishMonitorEvent", mock.Anything, f.vivaID.String(), mock.MatchedBy(func(e websocket.MonitorEvent) bool {
		return e.Event == websocket.EventSessionStarted
	})).Return(nil)

	res, err := f.svc.Join(ctx, f.vivaID, 42, "OSV1")
	require.NoError(t, err)

	assert.Equal(t, f.sessionID.String(), res.SessionID)
	assert.Equal(t, 3, res.MaxQuestions)
	assert.False(t, res.IsComplete)
	require.NotNil(t, res.CurrentQuestion)
	assert.Equal(t, int64(1), res.CurrentQuestion.ID)
	// calibration fields never reach the student
	assert.Equal(t, "Explain process isolation.", res.CurrentQuestion.Text)

	f.sink.AssertExpectations(t)
}

func TestJoinRejectsWrongEntryToken(t *testing.T) {
	f := newSessionFixture(t)

	f.vivas.On("GetByID", mock.Anything, f.vivaID).Return(f.viva, nil)

	_, err := f.svc.Join(context.Background(), f.vivaID, 42, "WRONG")
	assert.ErrorIs(t, err, ErrInvalidEntryToken)
}

func TestJoinRejectsUnpublishedViva(t *testing.T) {
	f := newSessionFixture(t)
	f.viva.Status = model.VivaStatusDraft

	f.vivas.On("GetByID", mock.Anything, f.vivaID).Return(f.viva, nil)

	_, err := f.svc.Join(context.Background(), f.vivaID, 42, "OSV1")
	assert.ErrorIs(t, err, ErrVivaNotAvailable)
}

func TestJoinRejectsOutsideScheduleWindow(t *testing.T) {
	f := newSessionFixture(t)
	start := time.Now().Add(time.Hour)
	f.viva.ScheduledStart = &start

	f.vivas.On("GetByID", mock.Anything, f.vivaID).Return(f.viva, nil)

	_, err := f.svc.Join(context.Background(), f.vivaID, 42, "OSV1")
	assert.ErrorIs(t, err, ErrVivaNotAvailable)
}

func TestJoinIsIdempotentAcrossSubmits(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.vivas.On("GetByID", mock.Anything, f.vivaID).Return(f.viva, nil)
	f.vivas.On("GetBank", mock.Anything, f.vivaID).Return(f.bank, nil)
	f.recorder.On("Create", mock.Anything, mock.Anything).Return(f.row, nil)
	f.recorder.On("GetByVivaAndStudent", mock.Anything, f.vivaID, 42).Return(f.row, nil)
	f.sink.On("PublishMonitorEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	first, err := f.svc.Join(ctx, f.vivaID, 42, "OSV1")
	require.NoError(t, err)

	score := 80.0
	_, err = f.svc.SubmitAnswer(ctx, f.vivaID, 42, model.SubmitAnswerRequest{
		QuestionID: first.CurrentQuestion.ID,
		RawScore:   &score,
	})
	require.NoError(t, err)

	// rejoin resumes the same session with its progress intact
	second, err := f.svc.Join(ctx, f.vivaID, 42, "OSV1")
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, 1, second.QuestionsAsked)
	require.NotNil(t, second.CurrentQuestion)
	assert.NotEqual(t, first.CurrentQuestion.ID, second.CurrentQuestion.ID)
}

func TestSubmitAnswerWithoutSession(t *testing.T) {
	f := newSessionFixture(t)

	f.recorder.On("GetByVivaAndStudent", mock.Anything, f.vivaID, 42).Return(nil, nil)

	score := 80.0
	_, err := f.svc.SubmitAnswer(context.Background(), f.vivaID, 42, model.SubmitAnswerRequest{
		QuestionID: 1,
		RawScore:   &score,
	})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSubmitAnswerPropagatesEngineValidation(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.vivas.On("GetByID", mock.Anything, f.vivaID).Return(f.viva, nil)
	f.vivas.On("GetBank", mock.Anything, f.vivaID).Return(f.bank, nil)
	f.recorder.On("Create", mock.Anything, mock.Anything).Return(f.row, nil)
	f.recorder.On("GetByVivaAndStudent", mock.Anything, f.vivaID, 42).Return(f.row, nil)
	f.sink.On("PublishMonitorEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Join(ctx, f.vivaID, 42, "OSV1")
	require.NoError(t, err)

	// not the question currently awaiting an answer
	score := 80.0
	_, err = f.svc.SubmitAnswer(ctx, f.vivaID, 42, model.SubmitAnswerRequest{
		QuestionID: 99,
		RawScore:   &score,
	})
	assert.ErrorIs(t, err, adaptive.ErrUnknownQuestion)
}

func TestSessionCompletesAndQueuesResult(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.vivas.On("GetByID", mock.Anything, f.vivaID).Return(f.viva, nil)
	f.vivas.On("GetBank", mock.Anything, f.vivaID).Return(f.bank, nil)
	f.recorder.On("Create", mock.Anything, mock.Anything).Return(f.row, nil)
	f.recorder.On("GetByVivaAndStudent", mock.Anything, f.vivaID, 42).Return(f.row, nil)
	f.sink.On("PublishMonitorEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.sink.On("EnqueueResult", mock.Anything, mock.MatchedBy(func(r model.SessionResult) bool {
		return r.Status == model.SessionStatusCompleted &&
			r.SessionID == f.sessionID.String() &&
			r.QuestionsAsked == 3 &&
			len(r.History) == 3
	})).Return(nil)

	joined, err := f.svc.Join(ctx, f.vivaID, 42, "OSV1")
	require.NoError(t, err)

	current := joined.CurrentQuestion.ID
	var last *model.SubmitAnswerResponse
	for i := 0; i < 3; i++ {
		score := 75.0
		last, err = f.svc.SubmitAnswer(ctx, f.vivaID, 42, model.SubmitAnswerRequest{
			QuestionID: current,
			RawScore:   &score,
		})
		require.NoError(t, err)
		if last.NextQuestion != nil {
			current = last.NextQuestion.ID
		}
	}

	assert.True(t, last.IsComplete)
	assert.Nil(t, last.NextQuestion)
	// live state is gone once the result is queued
	assert.Equal(t, 0, f.store.Len())
	f.sink.AssertExpectations(t)
}

func TestSubmitAfterCompletionRejected(t *testing.T) {
	f := newSessionFixture(t)
	f.row.Status = model.SessionStatusCompleted

	f.recorder.On("GetByVivaAndStudent", mock.Anything, f.vivaID, 42).Return(f.row, nil)

	score := 80.0
	_, err := f.svc.SubmitAnswer(context.Background(), f.vivaID, 42, model.SubmitAnswerRequest{
		QuestionID: 1,
		RawScore:   &score,
	})
	assert.ErrorIs(t, err, ErrSessionCompleted)
}

func TestGetStateForCompletedSession(t *testing.T) {
	f := newSessionFixture(t)
	ability := 1.4
	finished := time.Now()
	f.row.Status = model.SessionStatusCompleted
	f.row.FinalAbility = &ability
	f.row.TopicMastery = map[string]float64{"os": 0.62}
	f.row.QuestionsAsked = 3
	f.row.FinishedAt = &finished

	f.recorder.On("GetByVivaAndStudent", mock.Anything, f.vivaID, 42).Return(f.row, nil)

	state, err := f.svc.GetState(context.Background(), f.vivaID, 42)
	require.NoError(t, err)
	assert.True(t, state.IsComplete)
	assert.InDelta(t, 1.4, state.Ability, 1e-9)
	assert.Equal(t, 3, state.QuestionsAsked)
	assert.Nil(t, state.CurrentQuestion)
}

func TestAbandonExpiredQueuesPartialResult(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.vivas.On("GetByID", mock.Anything, f.vivaID).Return(f.viva, nil)
	f.vivas.On("GetBank", mock.Anything, f.vivaID).Return(f.bank, nil)
	f.recorder.On("Create", mock.Anything, mock.Anything).Return(f.row, nil)
	f.recorder.On("GetByID", mock.Anything, f.sessionID).Return(f.row, nil)
	f.recorder.On("GetByVivaAndStudent", mock.Anything, f.vivaID, 42).Return(f.row, nil)
	f.sink.On("PublishMonitorEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.sink.On("EnqueueResult", mock.Anything, mock.MatchedBy(func(r model.SessionResult) bool {
		return r.Status == model.SessionStatusAbandoned && r.QuestionsAsked == 1
	})).Return(nil)

	joined, err := f.svc.Join(ctx, f.vivaID, 42, "OSV1")
	require.NoError(t, err)

	score := 55.0
	_, err = f.svc.SubmitAnswer(ctx, f.vivaID, 42, model.SubmitAnswerRequest{
		QuestionID: joined.CurrentQuestion.ID,
		RawScore:   &score,
	})
	require.NoError(t, err)

	// nothing expired yet
	assert.Equal(t, 0, f.svc.AbandonExpired(ctx))

	// shrink the TTL window by swapping in a store whose TTL already passed
	expiredStore := store.NewSessionStore(nil, time.Nanosecond)
	f.svc.sessions = expiredStore
	require.NoError(t, expiredStore.Put(ctx, mustEngine(t, f)))
	time.Sleep(time.Millisecond)

	assert.Equal(t, 1, f.svc.AbandonExpired(ctx))
	assert.Equal(t, 0, expiredStore.Len())
	f.sink.AssertExpectations(t)
}

func TestJoinMissingVivaNotFound(t *testing.T) {
	f := newSessionFixture(t)

	f.vivas.On("GetByID", mock.Anything, f.vivaID).Return(nil, pgx.ErrNoRows)

	_, err := f.svc.Join(context.Background(), f.vivaID, 42, "OSV1")
	assert.ErrorIs(t, err, ErrVivaNotFound)
}

func TestJoinOpenVivaWithoutToken(t *testing.T) {
	f := newSessionFixture(t)
	f.viva.EntryToken = ""

	f.vivas.On("GetByID", mock.Anything, f.vivaID).Return(f.viva, nil)
	f.vivas.On("GetBank", mock.Anything, f.vivaID).Return(f.bank, nil)
	f.recorder.On("Create", mock.Anything, mock.Anything).Return(f.row, nil)
	f.sink.On("PublishMonitorEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	res, err := f.svc.Join(context.Background(), f.vivaID, 42, "")
	require.NoError(t, err)
	require.NotNil(t, res.CurrentQuestion)
	assert.Equal(t, int64(1), res.CurrentQuestion.ID)
}

func TestRecoverInProgressReadoptsLiveSessions(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	// one session still live in the store, one row whose snapshot is gone
	require.NoError(t, f.store.Put(ctx, mustEngine(t, f)))
	f.recorder.On("ListInProgressIDs", mock.Anything).
		Return([]string{f.sessionID.String(), uuid.NewString()}, nil)

	assert.Equal(t, 1, f.svc.RecoverInProgress(ctx))
	assert.Equal(t, 1, f.store.Len())
}

func mustEngine(t *testing.T, f *sessionFixture) *adaptive.Session {
	t.Helper()
	engine, err := adaptive.NewSession(f.sessionID.String(), "42", f.bank.Questions, 3)
	require.NoError(t, err)
	score := 55.0
	_, err = engine.SubmitAnswer(engine.Current.ID, score)
	require.NoError(t, err)
	return engine
}
