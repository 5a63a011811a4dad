package in

import (
	"context"

	catalogdto "tally/internal/modules/catalog/dto"
	catalogin "tally/internal/modules/catalog/port/in"
)

type CLIHandler struct {
	usecase catalogin.Usecase
}

func NewCLIHandler(usecase catalogin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) AddClient(ctx context.Context, name string) (catalogdto.ClientOutput, error) {
	return h.usecase.AddClient(ctx, catalogdto.AddClientInput{Name: name})
}

func (h CLIHandler) ListClients(ctx context.Context) ([]catalogdto.ClientOutput, error) {
	return h.usecase.ListClients(ctx)
}

func (h CLIHandler) AddProject(ctx context.Context, name string, clientID int64, hourlyRate float64) (catalogdto.ProjectOutput, error) {
	return h.usecase.AddProject(ctx, catalogdto.AddProjectInput{Name: name, ClientID: clientID, HourlyRate: hourlyRate})
}

func (h CLIHandler) ListProjects(ctx context.Context) ([]catalogdto.ProjectOutput, error) {
	return h.usecase.ListProjects(ctx)
}
