package in

import (
	"context"

	"tally/internal/modules/catalog/dto"
)

type Usecase interface {
	AddClient(ctx context.Context, input dto.AddClientInput) (dto.ClientOutput, error)
	ListClients(ctx context.Context) ([]dto.ClientOutput, error)
	AddProject(ctx context.Context, input dto.AddProjectInput) (dto.ProjectOutput, error)
	ListProjects(ctx context.Context) ([]dto.ProjectOutput, error)
	Describe(ctx context.Context, input dto.DescribeInput) (dto.ContextOutput, error)
}
