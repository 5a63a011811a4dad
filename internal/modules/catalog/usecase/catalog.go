package usecase

import (
	"context"

	"tally/internal/modules/catalog/domain"
	catalogdto "tally/internal/modules/catalog/dto"
	catalogin "tally/internal/modules/catalog/port/in"
	"tally/internal/modules/catalog/service"
)

type Interactor struct {
	svc *service.CatalogService
}

func NewInteractor(svc *service.CatalogService) catalogin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) AddClient(ctx context.Context, input catalogdto.AddClientInput) (catalogdto.ClientOutput, error) {
	client, err := i.svc.AddClient(ctx, input.Name)
	if err != nil {
		return catalogdto.ClientOutput{}, err
	}
	return catalogdto.ClientOutput{ID: client.ID, Name: client.Name}, nil
}

func (i *Interactor) ListClients(ctx context.Context) ([]catalogdto.ClientOutput, error) {
	clients, err := i.svc.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]catalogdto.ClientOutput, 0, len(clients))
	for _, c := range clients {
		out = append(out, catalogdto.ClientOutput{ID: c.ID, Name: c.Name})
	}
	return out, nil
}

func (i *Interactor) AddProject(ctx context.Context, input catalogdto.AddProjectInput) (catalogdto.ProjectOutput, error) {
	project, err := i.svc.AddProject(ctx, input.Name, input.ClientID, input.HourlyRate)
	if err != nil {
		return catalogdto.ProjectOutput{}, err
	}
	return i.projectOutput(ctx, project, nil), nil
}

func (i *Interactor) ListProjects(ctx context.Context) ([]catalogdto.ProjectOutput, error) {
	projects, err := i.svc.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	clients, err := i.svc.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}
	out := make([]catalogdto.ProjectOutput, 0, len(projects))
	for _, p := range projects {
		out = append(out, i.projectOutput(ctx, p, names))
	}
	return out, nil
}

func (i *Interactor) Describe(ctx context.Context, input catalogdto.DescribeInput) (catalogdto.ContextOutput, error) {
	c, err := i.svc.Describe(ctx, input.ProjectID, input.ClientID)
	if err != nil {
		return catalogdto.ContextOutput{}, err
	}
	return catalogdto.ContextOutput{
		ProjectID:   c.ProjectID,
		ProjectName: c.ProjectName,
		ClientID:    c.ClientID,
		ClientName:  c.ClientName,
		RateCents:   c.RateCents,
	}, nil
}

func (i *Interactor) projectOutput(ctx context.Context, p domain.Project, clientNames map[int64]string) catalogdto.ProjectOutput {
	out := catalogdto.ProjectOutput{ID: p.ID, Name: p.Name, ClientID: p.ClientID, HourlyRateCents: p.HourlyRateCents}
	if p.ClientID == 0 {
		return out
	}
	if clientNames != nil {
		out.ClientName = clientNames[p.ClientID]
		return out
	}
	if client, err := i.svc.FindClient(ctx, p.ClientID); err == nil {
		out.ClientName = client.Name
	}
	return out
}
