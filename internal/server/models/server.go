// Package models defines server-side data models persisted in the database.
package models

import (
	"time"

	"github.com/dmitrijs2005/ldbvault/internal/cryptox"
)

// Server is a registered remote LoRaDB endpoint together with its encrypted
// API key. The four secret columns are always written together.
type Server struct {
	ID           int64
	Name         string
	Host         string
	PasswordHash string
	Secret       cryptox.HexMaterial
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
