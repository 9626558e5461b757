package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aiuml/api/internal/models"
)

const uniqueViolation = "23505"

// Postgres implements Store on a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *Postgres) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	query := `
		INSERT INTO users (id, email, name, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err := s.pool.QueryRow(ctx, query, u.ID, u.Email, u.Name, u.PasswordHash, u.Role).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

const userColumns = `id, email, name, password_hash, role, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Postgres) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (s *Postgres) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

const projectColumns = `id, owner_id, name, description, requirements, created_at, updated_at`

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Requirements, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Postgres) CreateProject(ctx context.Context, p *models.Project) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	query := `
		INSERT INTO projects (id, owner_id, name, description, requirements)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	if err := s.pool.QueryRow(ctx, query, p.ID, p.OwnerID, p.Name, p.Description, p.Requirements).
		Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (s *Postgres) Project(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return scanProject(s.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
}

func (s *Postgres) ProjectsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (s *Postgres) UpdateProject(ctx context.Context, id uuid.UUID, patch models.ProjectPatch) (*models.Project, error) {
	query := `
		UPDATE projects SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			requirements = COALESCE($4, requirements),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + projectColumns
	return scanProject(s.pool.QueryRow(ctx, query, id, patch.Name, patch.Description, patch.Requirements))
}

func (s *Postgres) DeleteProject(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) DeleteProjectsByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete projects: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Postgres) SaveAnalysis(ctx context.Context, a *models.StoredAnalysis) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	d := &a.Diagram
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO diagrams (id, project_id, kind, notation, document, degraded, model)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, d.ID, d.ProjectID, d.Kind, d.Notation, d.Document, d.Degraded, d.Model).Scan(&d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert diagram: %w", err)
	}

	batch := &pgx.Batch{}
	for i := range a.Patterns {
		p := &a.Patterns[i]
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		p.ProjectID = d.ProjectID
		p.DiagramID = d.ID
		p.Position = i
		batch.Queue(`
			INSERT INTO pattern_suggestions (id, project_id, diagram_id, position, name, explanation)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, p.ID, p.ProjectID, p.DiagramID, p.Position, p.Name, p.Explanation)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert patterns: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *Postgres) LatestAnalysis(ctx context.Context, projectID uuid.UUID) (*models.StoredAnalysis, error) {
	var a models.StoredAnalysis
	d := &a.Diagram
	err := s.pool.QueryRow(ctx, `
		SELECT id, project_id, kind, notation, document, degraded, model, created_at
		FROM diagrams WHERE project_id = $1
		ORDER BY created_at DESC LIMIT 1
	`, projectID).Scan(&d.ID, &d.ProjectID, &d.Kind, &d.Notation, &d.Document, &d.Degraded, &d.Model, &d.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, project_id, diagram_id, position, name, explanation
		FROM pattern_suggestions WHERE diagram_id = $1
		ORDER BY position
	`, d.ID)
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}
	defer rows.Close()

	a.Patterns = []models.PatternSuggestion{}
	for rows.Next() {
		var p models.PatternSuggestion
		if err := rows.Scan(&p.ID, &p.ProjectID, &p.DiagramID, &p.Position, &p.Name, &p.Explanation); err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		a.Patterns = append(a.Patterns, p)
	}
	return &a, rows.Err()
}

func (s *Postgres) RecordGeneration(ctx context.Context, l *models.GenerationLog) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO generation_logs (id, user_id, project_id, operation, model_id, degraded, latency_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, l.ID, l.UserID, l.ProjectID, l.Operation, l.ModelID, l.Degraded, l.LatencyMs)
	if err != nil {
		return fmt.Errorf("insert generation log: %w", err)
	}
	return nil
}

func (s *Postgres) UsageByModel(ctx context.Context, userID uuid.UUID, since time.Time) ([]UsageRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT model_id, COUNT(*), COUNT(*) FILTER (WHERE degraded), COALESCE(AVG(latency_ms), 0)
		FROM generation_logs
		WHERE user_id = $1 AND created_at >= $2
		GROUP BY model_id
		ORDER BY COUNT(*) DESC
	`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("usage by model: %w", err)
	}
	defer rows.Close()

	out := []UsageRow{}
	for rows.Next() {
		var r UsageRow
		if err := rows.Scan(&r.ModelID, &r.Runs, &r.Degraded, &r.AvgMillis); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
