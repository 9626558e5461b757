// Package projects runs stored-project analyses: cache lookup, the
// analysis pipeline, persistence, event publication and usage logging.
package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aiuml/api/internal/analysis"
	"github.com/aiuml/api/internal/cache"
	"github.com/aiuml/api/internal/eventbus"
	"github.com/aiuml/api/internal/models"
	"github.com/aiuml/api/internal/prompt"
	"github.com/aiuml/api/internal/store"
	"github.com/aiuml/api/internal/usage"
)

// ErrNoRequirements is returned for a project with blank requirements.
var ErrNoRequirements = errors.New("project has no requirements")

// Analyzer is the subset of analysis.Service used here.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (analysis.Result, error)
	Resolve(req analysis.Request) (prompt.Dialect, prompt.Notation)
}

type Repository interface {
	store.Projects
	store.Analyses
}

type Service struct {
	repo     Repository
	analyzer Analyzer
	cache    *cache.Analyses
	events   eventbus.Publisher
	usage    *usage.Service
	logger   *zap.Logger
}

func NewService(repo Repository, analyzer Analyzer, c *cache.Analyses, events eventbus.Publisher, u *usage.Service, logger *zap.Logger) *Service {
	if events == nil {
		events = eventbus.Nop{}
	}
	return &Service{repo: repo, analyzer: analyzer, cache: c, events: events, usage: u, logger: logger}
}

// Run is the outcome of analyzing one project.
type Run struct {
	Result analysis.Result        `json:"result"`
	Stored *models.StoredAnalysis `json:"stored"`
	Cached bool                   `json:"cached"`
}

// Analyze analyzes the project's requirements, stores the result and
// publishes a completion event. Only configuration and storage errors are
// returned; backend outages come back as a degraded Result.
func (s *Service) Analyze(ctx context.Context, userID, projectID uuid.UUID, kind, notation, source string) (*Run, error) {
	project, err := s.repo.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(project.Requirements) == "" {
		return nil, ErrNoRequirements
	}

	req := analysis.Request{Requirements: project.Requirements, Kind: kind, Notation: notation}
	dialect, resolved := s.analyzer.Resolve(req)
	key := cache.Key(req.Requirements, dialect, resolved)

	start := time.Now()
	run := &Run{}
	if res, ok := s.cache.Get(ctx, key); ok {
		run.Result = res
		run.Cached = true
	} else {
		res, err := s.analyzer.Analyze(ctx, req)
		if err != nil {
			return nil, err
		}
		run.Result = res
		s.cache.Put(ctx, key, res)
	}

	stored := toStored(project.ID, run.Result)
	if err := s.repo.SaveAnalysis(ctx, stored); err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}
	run.Stored = stored

	if !run.Cached {
		s.usage.Record(ctx, userID, &project.ID, "analyze", run.Result.Diagram.Model,
			run.Result.Diagram.Degraded, time.Since(start))
	}

	ev := eventbus.AnalysisCompleted{
		ID:           uuid.NewString(),
		ProjectID:    project.ID.String(),
		UserID:       userID.String(),
		DiagramID:    stored.Diagram.ID.String(),
		Kind:         stored.Diagram.Kind,
		Notation:     stored.Diagram.Notation,
		Degraded:     stored.Diagram.Degraded,
		PatternCount: len(stored.Patterns),
		Model:        stored.Diagram.Model,
		Source:       source,
		OccurredAt:   time.Now().UTC(),
	}
	if err := s.events.PublishAnalysis(ctx, ev); err != nil {
		s.logger.Warn("failed to publish analysis event",
			zap.String("project_id", project.ID.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("project analyzed",
		zap.String("stage", "analyze"),
		zap.String("project_id", project.ID.String()),
		zap.Bool("degraded", stored.Diagram.Degraded),
		zap.Bool("cached", run.Cached),
		zap.String("source", source),
	)
	return run, nil
}

func toStored(projectID uuid.UUID, res analysis.Result) *models.StoredAnalysis {
	a := &models.StoredAnalysis{
		Diagram: models.Diagram{
			ProjectID: projectID,
			Kind:      string(res.Diagram.Dialect),
			Notation:  string(res.Diagram.Notation),
			Document:  res.Diagram.Document,
			Degraded:  res.Diagram.Degraded,
			Model:     res.Diagram.Model,
		},
		Patterns: make([]models.PatternSuggestion, 0, len(res.Patterns)),
	}
	for _, p := range res.Patterns {
		a.Patterns = append(a.Patterns, models.PatternSuggestion{Name: p.Name, Explanation: p.Explanation})
	}
	return a
}
