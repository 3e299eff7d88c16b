package service

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/go-drive-pool/internal/adapter"
)

// remoteError classifies an object store failure. Rejected credentials ask
// the user to re-link the account; everything else is a provider failure.
func remoteError(err error) error {
	if errors.Is(err, adapter.ErrUnauthorized) || errors.Is(err, adapter.ErrRefreshRevoked) {
		return fmt.Errorf("%w: %w", ErrReauthorizationRequired, err)
	}
	return fmt.Errorf("%w: %w", ErrRemoteStore, err)
}
