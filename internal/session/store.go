package session

import (
	"context"
	"errors"

	"github.com/aeroscout/fareengine/internal/models"
)

// ErrNotFound is returned by Update when the session does not exist.
var ErrNotFound = errors.New("search session not found")

// Store persists search sessions so a polling client can follow a search that
// outlives the request that started it. Get returns (nil, nil) when the
// session does not exist.
type Store interface {
	Set(ctx context.Context, session *models.SearchSession) error
	Get(ctx context.Context, searchID string) (*models.SearchSession, error)
	Update(ctx context.Context, searchID string, fn func(*models.SearchSession)) error
	Delete(ctx context.Context, searchID string) error
	Exists(ctx context.Context, searchID string) (bool, error)
	List(ctx context.Context) ([]string, error)
}
