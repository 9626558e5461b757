// Package store persists users, projects, stored analyses and generation
// logs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aiuml/api/internal/models"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrConflict = errors.New("store: already exists")
)

type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type Projects interface {
	CreateProject(ctx context.Context, p *models.Project) error
	Project(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ProjectsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error)
	UpdateProject(ctx context.Context, id uuid.UUID, patch models.ProjectPatch) (*models.Project, error)
	DeleteProject(ctx context.Context, id uuid.UUID) error
	DeleteProjectsByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

type Analyses interface {
	// SaveAnalysis stores the diagram and its patterns atomically, filling
	// in generated ids and timestamps.
	SaveAnalysis(ctx context.Context, a *models.StoredAnalysis) error
	LatestAnalysis(ctx context.Context, projectID uuid.UUID) (*models.StoredAnalysis, error)
}

// UsageRow aggregates generation logs for one model.
type UsageRow struct {
	ModelID   string  `json:"model_id"`
	Runs      int     `json:"runs"`
	Degraded  int     `json:"degraded"`
	AvgMillis float64 `json:"avg_latency_ms"`
}

type GenerationLogs interface {
	RecordGeneration(ctx context.Context, l *models.GenerationLog) error
	UsageByModel(ctx context.Context, userID uuid.UUID, since time.Time) ([]UsageRow, error)
}

// Store is everything the HTTP layer persists.
type Store interface {
	Users
	Projects
	Analyses
	GenerationLogs
	Ping(ctx context.Context) error
}
