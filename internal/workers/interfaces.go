// Package workers provides abstractions for managing and running
// background workers in the application.
// It defines the Worker interface and a Workers aggregate that starts and
// stops multiple workers in a unified way.
package workers

import (
	"context"

	"github.com/MKhiriev/go-drive-pool/models"
)

// Worker is the interface that must be implemented by any background worker.
//
// Start must not block: implementations spawn their own goroutines and keep
// running until ctx is cancelled or Stop is called. Stop blocks until the
// worker's goroutines have exited and is a no-op for a worker that is not
// running.
type Worker interface {
	Start(ctx context.Context)
	Stop()
}

// AccountSyncer is the part of the account service the quota worker needs.
type AccountSyncer interface {
	ListAllActive(ctx context.Context) ([]models.Account, error)
	SyncQuota(ctx context.Context, account models.Account) error
}
