package usage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aiuml/api/internal/models"
	"github.com/aiuml/api/internal/store"
)

// Service records generation runs and enforces the daily quota.
type Service struct {
	logs   store.GenerationLogs
	quota  int
	logger *zap.Logger
}

// NewService creates a usage service. A quota of zero disables the check.
func NewService(logs store.GenerationLogs, dailyQuota int, logger *zap.Logger) *Service {
	return &Service{logs: logs, quota: dailyQuota, logger: logger}
}

// QuotaStatus is the result of a quota check
type QuotaStatus struct {
	Allowed   bool   `json:"allowed"`
	Used      int    `json:"used"`
	Remaining int    `json:"remaining"`
	Reason    string `json:"reason"`
}

// CheckQuota verifies the user has runs left in the trailing 24 hours.
func (s *Service) CheckQuota(ctx context.Context, userID uuid.UUID) (*QuotaStatus, error) {
	if s.quota <= 0 {
		return &QuotaStatus{Allowed: true, Remaining: -1, Reason: "unlimited"}, nil
	}

	rows, err := s.logs.UsageByModel(ctx, userID, time.Now().Add(-24*time.Hour))
	if err != nil {
		// Fail open: the quota is advisory.
		s.logger.Warn("failed to read usage, allowing request", zap.Error(err))
		return &QuotaStatus{Allowed: true, Remaining: s.quota, Reason: "usage unavailable"}, nil
	}

	used := 0
	for _, r := range rows {
		used += r.Runs
	}
	if used >= s.quota {
		s.logger.Info("daily quota exceeded",
			zap.String("user_id", userID.String()),
			zap.Int("used", used),
			zap.Int("quota", s.quota),
		)
		return &QuotaStatus{Allowed: false, Used: used, Reason: "daily generation quota exceeded"}, nil
	}
	return &QuotaStatus{Allowed: true, Used: used, Remaining: s.quota - used, Reason: "within quota"}, nil
}

// Record logs one pipeline run. Failures are logged, not returned.
func (s *Service) Record(ctx context.Context, userID uuid.UUID, projectID *uuid.UUID, operation, model string, degraded bool, latency time.Duration) {
	if s == nil {
		return
	}
	err := s.logs.RecordGeneration(ctx, &models.GenerationLog{
		UserID:    userID,
		ProjectID: projectID,
		Operation: operation,
		ModelID:   model,
		Degraded:  degraded,
		LatencyMs: int(latency.Milliseconds()),
	})
	if err != nil {
		s.logger.Error("failed to record generation usage",
			zap.String("operation", operation),
			zap.Error(err),
		)
	}
}

// Summary is a user's usage over a window
type Summary struct {
	Since    time.Time        `json:"since"`
	Runs     int              `json:"runs"`
	Degraded int              `json:"degraded"`
	Models   []store.UsageRow `json:"models"`
}

func (s *Service) Summary(ctx context.Context, userID uuid.UUID, window time.Duration) (*Summary, error) {
	since := time.Now().Add(-window)
	rows, err := s.logs.UsageByModel(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	sum := &Summary{Since: since, Models: rows}
	for _, r := range rows {
		sum.Runs += r.Runs
		sum.Degraded += r.Degraded
	}
	return sum, nil
}
