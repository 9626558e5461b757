package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aiuml/api/internal/models"
)

// Memory is a process-local Store used for local runs (DATABASE_URL=memory://)
// and handler tests.
type Memory struct {
	mu       sync.RWMutex
	now      func() time.Time
	users    map[uuid.UUID]models.User
	projects map[uuid.UUID]models.Project
	analyses map[uuid.UUID][]models.StoredAnalysis
	logs     []models.GenerationLog
}

func NewMemory() *Memory {
	return &Memory{
		now:      time.Now,
		users:    make(map[uuid.UUID]models.User),
		projects: make(map[uuid.UUID]models.Project),
		analyses: make(map[uuid.UUID][]models.StoredAnalysis),
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrConflict
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = m.now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) CreateProject(_ context.Context, p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = m.now()
	p.UpdatedAt = p.CreatedAt
	m.projects[p.ID] = *p
	return nil
}

func (m *Memory) Project(_ context.Context, id uuid.UUID) (*models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *Memory) ProjectsByOwner(_ context.Context, ownerID uuid.UUID) ([]models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.Project{}
	for _, p := range m.projects {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdateProject(_ context.Context, id uuid.UUID, patch models.ProjectPatch) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Requirements != nil {
		p.Requirements = *patch.Requirements
	}
	p.UpdatedAt = m.now()
	m.projects[id] = p
	return &p, nil
}

func (m *Memory) DeleteProject(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.projects[id]; !ok {
		return ErrNotFound
	}
	delete(m.projects, id)
	delete(m.analyses, id)
	return nil
}

func (m *Memory) DeleteProjectsByOwner(_ context.Context, ownerID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, p := range m.projects {
		if p.OwnerID == ownerID {
			delete(m.projects, id)
			delete(m.analyses, id)
			n++
		}
	}
	return n, nil
}

func (m *Memory) SaveAnalysis(_ context.Context, a *models.StoredAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := &a.Diagram
	if _, ok := m.projects[d.ProjectID]; !ok {
		return ErrNotFound
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = m.now()
	for i := range a.Patterns {
		p := &a.Patterns[i]
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		p.ProjectID = d.ProjectID
		p.DiagramID = d.ID
		p.Position = i
	}

	stored := models.StoredAnalysis{
		Diagram:  *d,
		Patterns: append([]models.PatternSuggestion(nil), a.Patterns...),
	}
	m.analyses[d.ProjectID] = append(m.analyses[d.ProjectID], stored)
	return nil
}

func (m *Memory) LatestAnalysis(_ context.Context, projectID uuid.UUID) (*models.StoredAnalysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.analyses[projectID]
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	latest := list[len(list)-1]
	latest.Patterns = append([]models.PatternSuggestion{}, latest.Patterns...)
	return &latest, nil
}

func (m *Memory) RecordGeneration(_ context.Context, l *models.GenerationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.CreatedAt = m.now()
	m.logs = append(m.logs, *l)
	return nil
}

func (m *Memory) UsageByModel(_ context.Context, userID uuid.UUID, since time.Time) ([]UsageRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type agg struct {
		row   UsageRow
		total int
	}
	byModel := map[string]*agg{}
	var order []string
	for _, l := range m.logs {
		if l.UserID != userID || l.CreatedAt.Before(since) {
			continue
		}
		a, ok := byModel[l.ModelID]
		if !ok {
			a = &agg{row: UsageRow{ModelID: l.ModelID}}
			byModel[l.ModelID] = a
			order = append(order, l.ModelID)
		}
		a.row.Runs++
		if l.Degraded {
			a.row.Degraded++
		}
		a.total += l.LatencyMs
	}

	out := make([]UsageRow, 0, len(order))
	for _, id := range order {
		a := byModel[id]
		a.row.AvgMillis = float64(a.total) / float64(a.row.Runs)
		out = append(out, a.row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Runs > out[j].Runs })
	return out, nil
}
