package config

import "time"

const (
	defaultHTTPAddress    = "0.0.0.0:8080"
	defaultTokenIssuer    = "go-drive-pool"
	defaultLogLevel       = "info"
	defaultRootFolderName = "TirtaCloud"
	defaultDriveAPIURL    = "https://www.googleapis.com/drive/v3"
	defaultDriveUploadURL = "https://www.googleapis.com/upload/drive/v3"
)

// defaults returns the lowest-priority configuration layer.
func defaults() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			TokenIssuer:   defaultTokenIssuer,
			TokenDuration: 24 * time.Hour,
			LogLevel:      defaultLogLevel,
		},
		Storage: Storage{
			DB: DB{
				MaxOpenConns:    20,
				MaxIdleConns:    5,
				RetryMaxElapsed: 10 * time.Second,
			},
		},
		Server: Server{
			HTTPAddress:     defaultHTTPAddress,
			RequestTimeout:  time.Minute,
			MaxUploadSize:   5 << 30,
			PublicRateLimit: 60,
		},
		Google: Google{
			APIBaseURL:     defaultDriveAPIURL,
			UploadBaseURL:  defaultDriveUploadURL,
			RootFolderName: defaultRootFolderName,
			RequestTimeout: 5 * time.Minute,
		},
		Workers: Workers{
			QuotaSyncInterval: time.Hour,
		},
	}
}
