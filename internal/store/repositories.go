package store

import (
	"github.com/MKhiriev/go-drive-pool/internal/crypto"
	"github.com/MKhiriev/go-drive-pool/internal/logger"
)

// Repositories groups every repository backed by one [DB].
type Repositories struct {
	UserRepository      UserRepository
	AccountRepository   AccountRepository
	EntryRepository     EntryRepository
	ShareLinkRepository ShareLinkRepository
}

// NewRepositories builds all repositories over db. cipher protects stored
// provider credentials.
func NewRepositories(db *DB, cipher crypto.CredentialCipher, log *logger.Logger) *Repositories {
	return &Repositories{
		UserRepository:      NewUserRepository(db, log),
		AccountRepository:   NewAccountRepository(db, cipher, log),
		EntryRepository:     NewEntryRepository(db, log),
		ShareLinkRepository: NewShareLinkRepository(db, log),
	}
}
