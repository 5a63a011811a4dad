package domain

import (
	"fmt"
	"strings"
	"time"
)

type Client struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

type Project struct {
	ID              int64
	Name            string
	ClientID        int64
	HourlyRateCents int64
	CreatedAt       time.Time
}

func (c Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("client name is required")
	}
	return nil
}

func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("project name is required")
	}
	if p.ClientID < 0 {
		return fmt.Errorf("client id must not be negative")
	}
	if p.HourlyRateCents < 0 {
		return fmt.Errorf("hourly rate must not be negative")
	}
	return nil
}

// Context is what a tracked task knows about where it belongs.
type Context struct {
	ProjectID   int64
	ProjectName string
	ClientID    int64
	ClientName  string
	RateCents   int64
}
