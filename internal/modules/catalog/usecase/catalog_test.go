package usecase_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	catalogout "tally/internal/modules/catalog/adapter/out"
	catalogdto "tally/internal/modules/catalog/dto"
	catalogin "tally/internal/modules/catalog/port/in"
	"tally/internal/modules/catalog/service"
	"tally/internal/modules/catalog/usecase"
	apperrors "tally/internal/platform/errors"
	"tally/internal/platform/sanitize"
	"tally/internal/platform/sqlitedb"
)

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

func newCatalog(t *testing.T, defaultRate int64) catalogin.Usecase {
	t.Helper()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "tally.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	store, err := catalogout.NewSQLiteCatalogStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	clk := fixedClock{t: time.Date(2026, 4, 1, 8, 0, 0, 0, time.Local)}
	return usecase.NewInteractor(service.NewCatalogService(clk, sanitize.New(0), store, defaultRate))
}

func TestProjectsAndClientsRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	uc := newCatalog(t, 0)

	acme, err := uc.AddClient(ctx, catalogdto.AddClientInput{Name: "  Acme  "})
	if err != nil {
		t.Fatalf("add client: %v", err)
	}
	if acme.ID == 0 || acme.Name != "Acme" {
		t.Fatalf("unexpected client: %+v", acme)
	}
	site, err := uc.AddProject(ctx, catalogdto.AddProjectInput{Name: "Website", ClientID: acme.ID, HourlyRate: 80.5})
	if err != nil {
		t.Fatalf("add project: %v", err)
	}
	if site.ClientName != "Acme" || site.HourlyRateCents != 8050 {
		t.Fatalf("unexpected project: %+v", site)
	}
	if _, err := uc.AddProject(ctx, catalogdto.AddProjectInput{Name: "Internal"}); err != nil {
		t.Fatalf("add project without client: %v", err)
	}

	projects, err := uc.ListProjects(ctx)
	if err != nil {
		t.Fatalf("list projects: %v", err)
	}
	if len(projects) != 2 || projects[0].Name != "Internal" || projects[1].ClientName != "Acme" {
		t.Fatalf("unexpected projects: %+v", projects)
	}
	clients, err := uc.ListClients(ctx)
	if err != nil || len(clients) != 1 {
		t.Fatalf("unexpected clients: %+v (%v)", clients, err)
	}
}

func TestDescribeResolvesNamesAndRates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	uc := newCatalog(t, 5000)

	acme, _ := uc.AddClient(ctx, catalogdto.AddClientInput{Name: "Acme"})
	other, _ := uc.AddClient(ctx, catalogdto.AddClientInput{Name: "Other"})
	billed, _ := uc.AddProject(ctx, catalogdto.AddProjectInput{Name: "Billed", ClientID: acme.ID, HourlyRate: 120})
	plain, _ := uc.AddProject(ctx, catalogdto.AddProjectInput{Name: "Plain"})

	none, err := uc.Describe(ctx, catalogdto.DescribeInput{})
	if err != nil {
		t.Fatalf("describe none: %v", err)
	}
	if none.ProjectName != "" || none.ClientName != "" || none.RateCents != 5000 {
		t.Fatalf("unexpected empty context: %+v", none)
	}

	inherited, err := uc.Describe(ctx, catalogdto.DescribeInput{ProjectID: billed.ID})
	if err != nil {
		t.Fatalf("describe billed: %v", err)
	}
	if inherited.ClientName != "Acme" || inherited.RateCents != 12000 {
		t.Fatalf("expected client inherited from project, got %+v", inherited)
	}

	mixed, err := uc.Describe(ctx, catalogdto.DescribeInput{ProjectID: plain.ID, ClientID: other.ID})
	if err != nil {
		t.Fatalf("describe plain+other: %v", err)
	}
	if mixed.ProjectName != "Plain" || mixed.ClientName != "Other" || mixed.RateCents != 5000 {
		t.Fatalf("unexpected mixed context: %+v", mixed)
	}

	if _, err := uc.Describe(ctx, catalogdto.DescribeInput{ProjectID: billed.ID, ClientID: other.ID}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected client mismatch to be invalid, got %v", err)
	}
	if _, err := uc.Describe(ctx, catalogdto.DescribeInput{ProjectID: 999}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected missing project to be not found, got %v", err)
	}
}

func TestAddProjectValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	uc := newCatalog(t, 0)
	if _, err := uc.AddProject(ctx, catalogdto.AddProjectInput{Name: ""}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("empty name should be invalid, got %v", err)
	}
	if _, err := uc.AddProject(ctx, catalogdto.AddProjectInput{Name: "X", HourlyRate: -1}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("negative rate should be invalid, got %v", err)
	}
	if _, err := uc.AddProject(ctx, catalogdto.AddProjectInput{Name: "X", ClientID: 42}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("unknown client should be not found, got %v", err)
	}
	if _, err := uc.AddClient(ctx, catalogdto.AddClientInput{Name: "dup"}); err != nil {
		t.Fatalf("add client: %v", err)
	}
	if _, err := uc.AddClient(ctx, catalogdto.AddClientInput{Name: "dup"}); err == nil {
		t.Fatalf("duplicate client name should fail")
	}
}
