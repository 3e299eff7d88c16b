// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"errors"
	"fmt"
)

// validate checks that the merged [StructuredConfig] is usable at startup.
// All violations are reported at once.
func (cfg *StructuredConfig) validate() error {
	var errs []error
	invalid := func(group error, msg string) {
		errs = append(errs, fmt.Errorf("%w: %s", group, msg))
	}

	if cfg.App.PasswordHashKey == "" {
		invalid(ErrInvalidAppConfigs, "password hash key is required")
	}
	if cfg.App.TokenSignKey == "" {
		invalid(ErrInvalidAppConfigs, "token sign key is required")
	}
	if cfg.App.TokenIssuer == "" {
		invalid(ErrInvalidAppConfigs, "token issuer is required")
	}
	if cfg.App.TokenDuration <= 0 {
		invalid(ErrInvalidAppConfigs, "token duration must be positive")
	}
	if cfg.App.CredentialsKey == "" {
		invalid(ErrInvalidAppConfigs, "credentials key is required")
	}

	if cfg.Storage.DB.DSN == "" {
		invalid(ErrInvalidStorageConfigs, "database DSN is required")
	}
	if cfg.Storage.DB.MaxOpenConns < 0 || cfg.Storage.DB.MaxIdleConns < 0 {
		invalid(ErrInvalidStorageConfigs, "connection pool sizes must not be negative")
	}

	if cfg.Server.HTTPAddress == "" && cfg.Server.GRPCAddress == "" {
		invalid(ErrInvalidServerConfigs, "at least one server address is required")
	}
	if cfg.Server.MaxUploadSize < 0 {
		invalid(ErrInvalidServerConfigs, "max upload size must not be negative")
	}
	if cfg.Server.PublicRateLimit < 0 {
		invalid(ErrInvalidServerConfigs, "public rate limit must not be negative")
	}
	if _, err := cfg.Server.TrustedProxyPrefixes(); err != nil {
		invalid(ErrInvalidServerConfigs, "trusted proxies: "+err.Error())
	}

	if cfg.Server.HTTPAddress != "" && (cfg.Google.ClientID == "" || cfg.Google.ClientSecret == "") {
		invalid(ErrInvalidGoogleConfigs, "client id and secret are required")
	}
	if cfg.Google.RootFolderName == "" {
		invalid(ErrInvalidGoogleConfigs, "root folder name is required")
	}

	if cfg.Workers.QuotaSyncInterval < 0 {
		invalid(ErrInvalidWorkerConfigs, "quota sync interval must not be negative")
	}

	return errors.Join(errs...)
}
