package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tally/internal/modules/catalog/domain"
	catalogout "tally/internal/modules/catalog/port/out"
	apperrors "tally/internal/platform/errors"
	"tally/internal/platform/timefmt"
)

type SQLiteCatalogStore struct {
	db *sql.DB
}

func NewSQLiteCatalogStore(db *sql.DB) (catalogout.Store, error) {
	store := &SQLiteCatalogStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteCatalogStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS clients (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS projects (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  client_id INTEGER,
  hourly_rate_cents INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create catalog tables: %w", err)
	}
	return nil
}

func (s *SQLiteCatalogStore) InsertClient(ctx context.Context, client domain.Client) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO clients (name, created_at) VALUES (?, ?)`,
		client.Name, timefmt.FormatTimestamp(client.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("insert client: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("client id: %w", err)
	}
	return id, nil
}

func (s *SQLiteCatalogStore) FindClient(ctx context.Context, id int64) (domain.Client, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM clients WHERE id = ?`, id)
	client, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Client{}, fmt.Errorf("client %d: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return domain.Client{}, fmt.Errorf("find client: %w", err)
	}
	return client, nil
}

func (s *SQLiteCatalogStore) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM clients ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()
	var out []domain.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		out = append(out, client)
	}
	return out, rows.Err()
}

func (s *SQLiteCatalogStore) InsertProject(ctx context.Context, project domain.Project) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (name, client_id, hourly_rate_cents, created_at) VALUES (?, ?, ?, ?)`,
		project.Name, nullableID(project.ClientID), project.HourlyRateCents, timefmt.FormatTimestamp(project.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("insert project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("project id: %w", err)
	}
	return id, nil
}

func (s *SQLiteCatalogStore) FindProject(ctx context.Context, id int64) (domain.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, client_id, hourly_rate_cents, created_at FROM projects WHERE id = ?`, id)
	project, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Project{}, fmt.Errorf("project %d: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return domain.Project{}, fmt.Errorf("find project: %w", err)
	}
	return project, nil
}

func (s *SQLiteCatalogStore) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, client_id, hourly_rate_cents, created_at FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()
	var out []domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, project)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClient(row scanner) (domain.Client, error) {
	var c domain.Client
	var created string
	if err := row.Scan(&c.ID, &c.Name, &created); err != nil {
		return domain.Client{}, err
	}
	c.CreatedAt = parseCreated(created)
	return c, nil
}

func scanProject(row scanner) (domain.Project, error) {
	var p domain.Project
	var clientID sql.NullInt64
	var created string
	if err := row.Scan(&p.ID, &p.Name, &clientID, &p.HourlyRateCents, &created); err != nil {
		return domain.Project{}, err
	}
	p.ClientID = clientID.Int64
	p.CreatedAt = parseCreated(created)
	return p, nil
}

func parseCreated(value string) time.Time {
	t, err := timefmt.ParseTimestamp(value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableID(id int64) any {
	if id <= 0 {
		return nil
	}
	return id
}
