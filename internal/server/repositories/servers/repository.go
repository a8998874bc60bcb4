package servers

import (
	"context"

	"github.com/dmitrijs2005/ldbvault/internal/cryptox"
	"github.com/dmitrijs2005/ldbvault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.Server) (*models.Server, error)
	GetByID(ctx context.Context, id int64) (*models.Server, error)
	GetByName(ctx context.Context, name string) (*models.Server, error)
	GetByHost(ctx context.Context, host string) (*models.Server, error)
	List(ctx context.Context) ([]*models.Server, error)
	UpdateSecret(ctx context.Context, id int64, passwordHash string, secret cryptox.HexMaterial) error
	Delete(ctx context.Context, id int64) error
}
