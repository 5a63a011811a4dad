package out

import (
	"context"

	"tally/internal/modules/catalog/domain"
)

type Store interface {
	InsertClient(ctx context.Context, client domain.Client) (int64, error)
	FindClient(ctx context.Context, id int64) (domain.Client, error)
	ListClients(ctx context.Context) ([]domain.Client, error)
	InsertProject(ctx context.Context, project domain.Project) (int64, error)
	FindProject(ctx context.Context, id int64) (domain.Project, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
}
