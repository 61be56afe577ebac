package reconcile

import (
	"fmt"
	"testing"

	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/question"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("new-%d", n)
	}
}

func q(id, title string) model.Question {
	return model.Question{ID: id, Title: title, Type: question.Short, Order: 99}
}

func TestComputeFreshForm(t *testing.T) {
	plan := Compute("f1", nil, []model.Question{q("", "a"), q("", "b")}, sequence())

	assert.Empty(t, plan.Updates)
	assert.Empty(t, plan.Deletes)
	require.Len(t, plan.Creates, 2)
	assert.Equal(t, "new-1", plan.Creates[0].ID)
	assert.Equal(t, 0, plan.Creates[0].Order)
	assert.Equal(t, "new-2", plan.Creates[1].ID)
	assert.Equal(t, 1, plan.Creates[1].Order)
	assert.Equal(t, "f1", plan.Creates[1].FormID)
}

func TestComputeMixed(t *testing.T) {
	persisted := []string{"q1", "q2", "q3"}
	desired := []model.Question{
		q("q3", "third first"),
		q("", "brand new"),
		q("q1", "first"),
		q("elsewhere", "foreign id"),
	}

	plan := Compute("f1", persisted, desired, sequence())

	assert.Equal(t, []string{"q2"}, plan.Deletes)
	require.Len(t, plan.Updates, 2)
	assert.Equal(t, "q3", plan.Updates[0].ID)
	assert.Equal(t, 0, plan.Updates[0].Order)
	assert.Equal(t, "q1", plan.Updates[1].ID)
	assert.Equal(t, 2, plan.Updates[1].Order)

	require.Len(t, plan.Creates, 2)
	assert.Equal(t, "new-1", plan.Creates[0].ID)
	assert.Equal(t, 1, plan.Creates[0].Order)
	assert.Equal(t, "new-2", plan.Creates[1].ID, "unknown ids are not reused")
	assert.Equal(t, 3, plan.Creates[1].Order)

	titles := []string{}
	for i, got := range plan.Questions() {
		assert.Equal(t, i, got.Order)
		titles = append(titles, got.Title)
	}
	assert.Equal(t, []string{"third first", "brand new", "first", "foreign id"}, titles)
}

func TestComputeDuplicateIDBecomesCreate(t *testing.T) {
	plan := Compute("f1", []string{"q1"}, []model.Question{q("q1", "a"), q("q1", "b")}, sequence())
	require.Len(t, plan.Updates, 1)
	require.Len(t, plan.Creates, 1)
	assert.Equal(t, "new-1", plan.Creates[0].ID)
	assert.Empty(t, plan.Deletes)
}

func TestComputeIsIdempotent(t *testing.T) {
	first := Compute("f1", nil, []model.Question{q("", "a"), q("", "b")}, sequence())
	saved := first.Questions()

	ids := []string{}
	for _, s := range saved {
		ids = append(ids, s.ID)
	}
	second := Compute("f1", ids, saved, sequence())

	assert.Empty(t, second.Creates)
	assert.Empty(t, second.Deletes)
	assert.Equal(t, saved, second.Questions())
}

func TestComputeRemoveAll(t *testing.T) {
	plan := Compute("f1", []string{"q1", "q2"}, nil, sequence())
	assert.Equal(t, []string{"q1", "q2"}, plan.Deletes)
	assert.False(t, plan.Empty())
	assert.Empty(t, plan.Questions())
}
