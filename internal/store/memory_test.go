package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiuml/api/internal/models"
)

var _ Store = (*Memory)(nil)
var _ Store = (*Postgres)(nil)

func strPtr(s string) *string { return &s }

func TestMemory_Users(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	u := &models.User{Email: "ada@example.com", Name: "Ada", Role: models.RoleStudent}
	require.NoError(t, m.CreateUser(ctx, u))
	assert.NotEqual(t, uuid.Nil, u.ID)

	err := m.CreateUser(ctx, &models.User{Email: "ADA@example.com"})
	assert.ErrorIs(t, err, ErrConflict)

	got, err := m.UserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = m.UserByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ProjectLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	owner := uuid.New()
	other := uuid.New()

	p := &models.Project{OwnerID: owner, Name: "Library", Description: "d", Requirements: "Members borrow books."}
	require.NoError(t, m.CreateProject(ctx, p))
	require.NoError(t, m.CreateProject(ctx, &models.Project{OwnerID: owner, Name: "Shop"}))
	require.NoError(t, m.CreateProject(ctx, &models.Project{OwnerID: other, Name: "Other"}))

	list, err := m.ProjectsByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	updated, err := m.UpdateProject(ctx, p.ID, models.ProjectPatch{Requirements: strPtr("Members reserve books.")})
	require.NoError(t, err)
	assert.Equal(t, "Library", updated.Name)
	assert.Equal(t, "d", updated.Description)
	assert.Equal(t, "Members reserve books.", updated.Requirements)

	_, err = m.UpdateProject(ctx, uuid.New(), models.ProjectPatch{})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.DeleteProject(ctx, p.ID))
	assert.ErrorIs(t, m.DeleteProject(ctx, p.ID), ErrNotFound)

	n, err := m.DeleteProjectsByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err = m.ProjectsByOwner(ctx, other)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemory_Analyses(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	p := &models.Project{OwnerID: uuid.New(), Name: "x"}
	require.NoError(t, m.CreateProject(ctx, p))

	_, err := m.LatestAnalysis(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	first := &models.StoredAnalysis{
		Diagram: models.Diagram{ProjectID: p.ID, Kind: "CLASS", Document: "classDiagram"},
		Patterns: []models.PatternSuggestion{
			{Name: "Strategy", Explanation: "a"},
			{Name: "Observer", Explanation: "b"},
		},
	}
	require.NoError(t, m.SaveAnalysis(ctx, first))
	assert.Equal(t, 1, first.Patterns[1].Position)
	assert.Equal(t, first.Diagram.ID, first.Patterns[0].DiagramID)

	second := &models.StoredAnalysis{Diagram: models.Diagram{ProjectID: p.ID, Kind: "SEQUENCE", Document: "sequenceDiagram"}}
	require.NoError(t, m.SaveAnalysis(ctx, second))

	latest, err := m.LatestAnalysis(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "SEQUENCE", latest.Diagram.Kind)
	assert.Empty(t, latest.Patterns)

	err = m.SaveAnalysis(ctx, &models.StoredAnalysis{Diagram: models.Diagram{ProjectID: uuid.New()}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_UsageByModel(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	user := uuid.New()

	for _, l := range []models.GenerationLog{
		{UserID: user, ModelID: "gemini-pro-latest", LatencyMs: 100},
		{UserID: user, ModelID: "gemini-pro-latest", LatencyMs: 300},
		{UserID: user, ModelID: "", Degraded: true, LatencyMs: 50},
		{UserID: uuid.New(), ModelID: "gemini-pro-latest", LatencyMs: 1},
	} {
		l := l
		require.NoError(t, m.RecordGeneration(ctx, &l))
	}

	rows, err := m.UsageByModel(ctx, user, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, UsageRow{ModelID: "gemini-pro-latest", Runs: 2, AvgMillis: 200}, rows[0])
	assert.Equal(t, UsageRow{ModelID: "", Runs: 1, Degraded: 1, AvgMillis: 50}, rows[1])
}
