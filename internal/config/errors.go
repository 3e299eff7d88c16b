package config

import "errors"

// Validation errors returned by [StructuredConfig.validate]. The returned
// error wraps one or more of these together with the offending setting.
var (
	ErrInvalidAppConfigs     = errors.New("invalid app configuration")
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	ErrInvalidServerConfigs  = errors.New("invalid server configuration")
	ErrInvalidGoogleConfigs  = errors.New("invalid google configuration")
	ErrInvalidWorkerConfigs  = errors.New("invalid worker configuration")
)
