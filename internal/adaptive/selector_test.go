package adaptive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBank() []Question {
	return []Question{
		{ID: 1, Difficulty: -1.5, Topic: "loops"},
		{ID: 2, Difficulty: -0.8, Topic: "loops"},
		{ID: 3, Difficulty: 0.3, Topic: "recursion"},
		{ID: 4, Difficulty: 1.2, Topic: "pointers"},
	}
}

func TestSelectFirst_Easiest(t *testing.T) {
	q, err := SelectFirst(testBank())
	require.NoError(t, err)
	assert.Equal(t, int64(1), q.ID)
}

func TestSelectFirst_TieBreaksByInsertionOrder(t *testing.T) {
	bank := []Question{
		{ID: 9, Difficulty: -1.0, Topic: "a"},
		{ID: 2, Difficulty: -1.0, Topic: "b"},
	}
	q, err := SelectFirst(bank)
	require.NoError(t, err)
	assert.Equal(t, int64(9), q.ID)
}

func TestSelectFirst_EmptyBank(t *testing.T) {
	_, err := SelectFirst(nil)
	assert.ErrorIs(t, err, ErrEmptyBank)
}

func TestSelectNext_SkipsAnswered(t *testing.T) {
	bank := testBank()
	model := NewStudentModel(bank)
	model.Answered[1] = true
	model.Answered[2] = true

	q, err := SelectNext(bank, model)
	require.NoError(t, err)
	assert.Contains(t, []int64{3, 4}, q.ID)
}

func TestSelectNext_AllAnswered(t *testing.T) {
	bank := testBank()
	model := NewStudentModel(bank)
	for _, q := range bank {
		model.Answered[q.ID] = true
	}

	_, err := SelectNext(bank, model)
	assert.ErrorIs(t, err, ErrEmptyBank)
}

func TestSelectNext_MaximizesInformation(t *testing.T) {
	// With theta at 0 and equal mastery everywhere, the question whose
	// difficulty is closest to theta carries the most Fisher information.
	bank := []Question{
		{ID: 1, Difficulty: -2.5, Topic: "t"},
		{ID: 2, Difficulty: 0.1, Topic: "t"},
		{ID: 3, Difficulty: 2.5, Topic: "t"},
	}
	model := NewStudentModel(bank)
	model.Ability = 0

	q, err := SelectNext(bank, model)
	require.NoError(t, err)
	assert.Equal(t, int64(2), q.ID)
}

func TestSelectNext_MasteryDistanceFromMidpoint(t *testing.T) {
	// Identical difficulty: the mastery term is the distance from 0.5, so a
	// topic at 0.9 and one at 0.1 both beat a topic sitting at 0.5, and the
	// 0.9/0.1 tie breaks to the lower ID.
	bank := []Question{
		{ID: 1, Difficulty: 0.5, Topic: "known"},
		{ID: 2, Difficulty: 0.5, Topic: "uncertain"},
		{ID: 3, Difficulty: 0.5, Topic: "weak"},
	}
	model := NewStudentModel(bank)
	model.TopicMastery["known"] = 0.9
	model.TopicMastery["uncertain"] = 0.5
	model.TopicMastery["weak"] = 0.1

	q, err := SelectNext(bank, model)
	require.NoError(t, err)
	assert.Equal(t, int64(1), q.ID)
}

func TestSelectNext_TieBreaksByLowestID(t *testing.T) {
	bank := []Question{
		{ID: 7, Difficulty: 0.5, Topic: "t"},
		{ID: 3, Difficulty: 0.5, Topic: "t"},
		{ID: 5, Difficulty: 0.5, Topic: "t"},
	}
	model := NewStudentModel(bank)

	q, err := SelectNext(bank, model)
	require.NoError(t, err)
	assert.Equal(t, int64(3), q.ID)
}
