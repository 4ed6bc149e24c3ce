package adaptive

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBank() []Question {
	return []Question{
		{ID: 1, Text: "q1", Difficulty: -1.5, Topic: "loops"},
		{ID: 2, Text: "q2", Difficulty: -0.8, Topic: "loops"},
		{ID: 3, Text: "q3", Difficulty: 0.3, Topic: "loops"},
	}
}

func TestNewSession_SelectsEasiestFirst(t *testing.T) {
	s, err := NewSession("s1", "student-1", seedBank(), 3)
	require.NoError(t, err)

	assert.Equal(t, StateInProgress, s.State)
	require.NotNil(t, s.Current)
	assert.Equal(t, int64(1), s.Current.ID)
	assert.Equal(t, 0.0, s.Model.Ability)
	assert.Equal(t, MasteryInit, s.Model.TopicMastery["loops"])
}

func TestNewSession_EmptyBank(t *testing.T) {
	_, err := NewSession("s1", "student-1", nil, 3)
	assert.ErrorIs(t, err, ErrEmptyBank)
}

func TestNewSession_OwnsBankCopy(t *testing.T) {
	bank := seedBank()
	s, err := NewSession("s1", "student-1", bank, 3)
	require.NoError(t, err)

	bank[0].Difficulty = 99
	assert.Equal(t, -1.5, s.Bank[0].Difficulty)
}

func TestSubmitAnswer_SeedScenario(t *testing.T) {
	s, err := NewSession("s1", "student-1", seedBank(), 3)
	require.NoError(t, err)

	// Answer the easy first question well: no bonus tier, adjusted stays 80.
	res, err := s.SubmitAnswer(1, 80)
	require.NoError(t, err)

	assert.Equal(t, 80.0, res.Feedback.AdjustedScore)
	assert.True(t, res.Feedback.Correct)
	assert.InDelta(t, 1.8, res.Feedback.Ability, 1e-9)
	assert.InDelta(t, 0.51, res.Feedback.TopicMastery, 1e-9)
	assert.False(t, res.IsComplete)

	// With theta at 1.8, question 3 (difficulty 0.3) carries far more
	// information than question 2 (difficulty -0.8).
	require.NotNil(t, res.NextQuestion)
	assert.Equal(t, int64(3), res.NextQuestion.ID)
}

func TestSubmitAnswer_TerminatesAtMaxQuestions(t *testing.T) {
	s, err := NewSession("s1", "student-1", seedBank(), 3)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NotNil(t, s.Current, "question %d", i)
		res, err := s.SubmitAnswer(s.Current.ID, 70)
		require.NoError(t, err)
		assert.Equal(t, i == 2, res.IsComplete)
	}

	assert.True(t, s.IsComplete())
	assert.Equal(t, 3, s.QuestionsAsked)

	_, err = s.SubmitAnswer(1, 50)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSubmitAnswer_EndsEarlyWhenBankExhausted(t *testing.T) {
	bank := seedBank()[:2]
	s, err := NewSession("s1", "student-1", bank, 5)
	require.NoError(t, err)

	res, err := s.SubmitAnswer(s.Current.ID, 70)
	require.NoError(t, err)
	assert.False(t, res.IsComplete)

	res, err = s.SubmitAnswer(s.Current.ID, 70)
	require.NoError(t, err)
	assert.True(t, res.IsComplete)
	assert.Nil(t, res.NextQuestion)
	assert.True(t, s.IsComplete())
}

func TestSubmitAnswer_NoRepeats(t *testing.T) {
	bank := []Question{
		{ID: 1, Difficulty: -1.0, Topic: "a"},
		{ID: 2, Difficulty: -0.5, Topic: "b"},
		{ID: 3, Difficulty: 0.0, Topic: "a"},
		{ID: 4, Difficulty: 0.5, Topic: "c"},
		{ID: 5, Difficulty: 1.0, Topic: "b"},
	}
	s, err := NewSession("s1", "student-1", bank, 5)
	require.NoError(t, err)

	seen := make(map[int64]bool)
	for !s.IsComplete() {
		id := s.Current.ID
		assert.False(t, seen[id], "question %d asked twice", id)
		seen[id] = true

		_, err := s.SubmitAnswer(id, 65)
		require.NoError(t, err)
	}

	assert.Len(t, seen, 5)
	assert.Equal(t, s.QuestionsAsked, len(s.Model.Answered))
}

func TestSubmitAnswer_ValidationLeavesStateUntouched(t *testing.T) {
	s, err := NewSession("s1", "student-1", seedBank(), 3)
	require.NoError(t, err)

	before, _ := json.Marshal(s)

	_, err = s.SubmitAnswer(1, 101)
	assert.ErrorIs(t, err, ErrInvalidScore)

	_, err = s.SubmitAnswer(1, -0.5)
	assert.ErrorIs(t, err, ErrInvalidScore)

	// In the bank but not the question awaiting an answer.
	_, err = s.SubmitAnswer(2, 80)
	assert.ErrorIs(t, err, ErrUnknownQuestion)

	// Not in the bank at all.
	_, err = s.SubmitAnswer(42, 80)
	assert.ErrorIs(t, err, ErrUnknownQuestion)

	after, _ := json.Marshal(s)
	assert.JSONEq(t, string(before), string(after))
}

func TestSubmitAnswer_RejectsAlreadyAnswered(t *testing.T) {
	s, err := NewSession("s1", "student-1", seedBank(), 3)
	require.NoError(t, err)

	_, err = s.SubmitAnswer(1, 80)
	require.NoError(t, err)

	_, err = s.SubmitAnswer(1, 80)
	assert.ErrorIs(t, err, ErrUnknownQuestion)
}

func TestSessions_Deterministic(t *testing.T) {
	run := func() *Session {
		s, err := NewSession("s", "student", seedBank(), 3)
		require.NoError(t, err)
		scores := []float64{80, 45, 92}
		for i := 0; !s.IsComplete(); i++ {
			_, err := s.SubmitAnswer(s.Current.ID, scores[i])
			require.NoError(t, err)
		}
		return s
	}

	a, b := run(), run()
	assert.Equal(t, a.Model.Ability, b.Model.Ability)
	assert.Equal(t, a.Model.TopicMastery, b.Model.TopicMastery)
	assert.Equal(t, a.Model.History, b.Model.History)
}

func TestSnapshot(t *testing.T) {
	s, err := NewSession("s1", "student-1", seedBank(), 3)
	require.NoError(t, err)

	_, err = s.SubmitAnswer(1, 80)
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.InDelta(t, 1.8, snap.Ability, 1e-9)
	assert.Equal(t, 1, snap.QuestionsAsked)
	assert.Equal(t, 3, snap.MaxQuestions)
	assert.False(t, snap.IsComplete)
	require.NotNil(t, snap.Current)

	// The snapshot's mastery map is a copy.
	snap.TopicMastery["loops"] = 0
	assert.InDelta(t, 0.51, s.Model.TopicMastery["loops"], 1e-9)
}

func TestSessionJSONRoundTrip(t *testing.T) {
	s, err := NewSession("s1", "student-1", seedBank(), 3)
	require.NoError(t, err)
	_, err = s.SubmitAnswer(1, 80)
	require.NoError(t, err)

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var restored Session
	require.NoError(t, json.Unmarshal(raw, &restored))

	// The restored session keeps working where it left off.
	res, err := restored.SubmitAnswer(restored.Current.ID, 45)
	require.NoError(t, err)
	assert.Equal(t, 2, restored.QuestionsAsked)
	assert.NotNil(t, res)
}
