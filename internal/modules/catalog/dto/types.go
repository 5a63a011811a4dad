package dto

type AddClientInput struct {
	Name string
}

type AddProjectInput struct {
	Name       string
	ClientID   int64
	HourlyRate float64
}

type ClientOutput struct {
	ID   int64
	Name string
}

type ProjectOutput struct {
	ID              int64
	Name            string
	ClientID        int64
	ClientName      string
	HourlyRateCents int64
}

type DescribeInput struct {
	ProjectID int64
	ClientID  int64
}

type ContextOutput struct {
	ProjectID   int64
	ProjectName string
	ClientID    int64
	ClientName  string
	RateCents   int64
}
