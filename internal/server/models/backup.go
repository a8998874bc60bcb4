package models

import (
	"time"

	"github.com/dmitrijs2005/ldbvault/internal/cryptox"
)

// BackupVersion is the current backup document format.
const BackupVersion = 1

// Backup is the document written by export and read by import.
type Backup struct {
	Version   int            `json:"version"`
	CreatedAt time.Time      `json:"created_at"`
	Servers   []BackupServer `json:"servers"`
}

// BackupServer carries everything needed to restore one server row.
type BackupServer struct {
	Name         string              `json:"name"`
	Host         string              `json:"host"`
	PasswordHash string              `json:"password_hash"`
	Secret       cryptox.HexMaterial `json:"secret"`
}
