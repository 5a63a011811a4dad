package service

import (
	"context"
	"fmt"
	"math"

	"tally/internal/modules/catalog/domain"
	catalogout "tally/internal/modules/catalog/port/out"
	"tally/internal/platform/clock"
	apperrors "tally/internal/platform/errors"
	"tally/internal/platform/sanitize"
)

type CatalogService struct {
	clock            clock.Clock
	sanitizer        sanitize.Sanitizer
	store            catalogout.Store
	defaultRateCents int64
}

func NewCatalogService(clock clock.Clock, sanitizer sanitize.Sanitizer, store catalogout.Store, defaultRateCents int64) *CatalogService {
	return &CatalogService{clock: clock, sanitizer: sanitizer, store: store, defaultRateCents: defaultRateCents}
}

func (s *CatalogService) AddClient(ctx context.Context, name string) (domain.Client, error) {
	name, err := s.sanitizer.Text("client name", name)
	if err != nil {
		return domain.Client{}, err
	}
	client := domain.Client{Name: name, CreatedAt: s.clock.Now()}
	if err := client.Validate(); err != nil {
		return domain.Client{}, err
	}
	id, err := s.store.InsertClient(ctx, client)
	if err != nil {
		return domain.Client{}, err
	}
	client.ID = id
	return client, nil
}

func (s *CatalogService) AddProject(ctx context.Context, name string, clientID int64, hourlyRate float64) (domain.Project, error) {
	name, err := s.sanitizer.Text("project name", name)
	if err != nil {
		return domain.Project{}, err
	}
	if err := s.sanitizer.ID("client id", clientID); err != nil {
		return domain.Project{}, err
	}
	if hourlyRate < 0 || math.IsNaN(hourlyRate) || math.IsInf(hourlyRate, 0) {
		return domain.Project{}, apperrors.Invalid("hourly rate", "must be a non-negative number")
	}
	if clientID > 0 {
		if _, err := s.store.FindClient(ctx, clientID); err != nil {
			return domain.Project{}, err
		}
	}
	project := domain.Project{
		Name:            name,
		ClientID:        clientID,
		HourlyRateCents: int64(math.Round(hourlyRate * 100)),
		CreatedAt:       s.clock.Now(),
	}
	if err := project.Validate(); err != nil {
		return domain.Project{}, err
	}
	id, err := s.store.InsertProject(ctx, project)
	if err != nil {
		return domain.Project{}, err
	}
	project.ID = id
	return project, nil
}

func (s *CatalogService) ListClients(ctx context.Context) ([]domain.Client, error) {
	return s.store.ListClients(ctx)
}

func (s *CatalogService) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return s.store.ListProjects(ctx)
}

func (s *CatalogService) FindClient(ctx context.Context, id int64) (domain.Client, error) {
	return s.store.FindClient(ctx, id)
}

// Describe resolves display names for a project/client pair. Zero ids mean
// "none". A project without an explicit client inherits the project's client.
func (s *CatalogService) Describe(ctx context.Context, projectID, clientID int64) (domain.Context, error) {
	if err := s.sanitizer.ID("project id", projectID); err != nil {
		return domain.Context{}, err
	}
	if err := s.sanitizer.ID("client id", clientID); err != nil {
		return domain.Context{}, err
	}
	out := domain.Context{RateCents: s.defaultRateCents}
	if projectID > 0 {
		project, err := s.store.FindProject(ctx, projectID)
		if err != nil {
			return domain.Context{}, fmt.Errorf("project %d: %w", projectID, err)
		}
		if clientID > 0 && project.ClientID > 0 && project.ClientID != clientID {
			return domain.Context{}, apperrors.Invalid("client id", fmt.Sprintf("project %d belongs to client %d", projectID, project.ClientID))
		}
		if clientID == 0 {
			clientID = project.ClientID
		}
		out.ProjectID = project.ID
		out.ProjectName = project.Name
		if project.HourlyRateCents > 0 {
			out.RateCents = project.HourlyRateCents
		}
	}
	if clientID > 0 {
		client, err := s.store.FindClient(ctx, clientID)
		if err != nil {
			return domain.Context{}, fmt.Errorf("client %d: %w", clientID, err)
		}
		out.ClientID = client.ID
		out.ClientName = client.Name
	}
	return out, nil
}
