package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig is the on-disk JSON layout of the configuration file.
// Durations accept either Go duration strings ("30s") or nanosecond numbers.
type StructuredJSONConfig struct {
	App struct {
		PasswordHashKey string   `json:"password_hash_key"`
		TokenSignKey    string   `json:"token_sign_key"`
		TokenIssuer     string   `json:"token_issuer"`
		TokenDuration   Duration `json:"token_duration"`
		CredentialsKey  string   `json:"credentials_key"`
		PublicURL       string   `json:"public_url"`
		FrontendURL     string   `json:"frontend_url"`
		Version         string   `json:"version"`
		LogLevel        string   `json:"log_level"`
	} `json:"app,omitempty"`

	Storage struct {
		DB struct {
			DSN             string   `json:"dsn"`
			MaxOpenConns    int      `json:"max_open_conns"`
			MaxIdleConns    int      `json:"max_idle_conns"`
			RetryMaxElapsed Duration `json:"retry_max_elapsed"`
		} `json:"db,omitempty"`

		Redis struct {
			Address  string `json:"address"`
			Password string `json:"password"`
			DB       int    `json:"db"`
		} `json:"redis,omitempty"`
	} `json:"storage,omitempty"`

	Server struct {
		HTTPAddress     string   `json:"http_address"`
		GRPCAddress     string   `json:"grpc_address"`
		RequestTimeout  Duration `json:"request_timeout"`
		MaxUploadSize   int64    `json:"max_upload_size"`
		PublicRateLimit int      `json:"public_rate_limit"`
		TrustedProxies  []string `json:"trusted_proxies"`
	} `json:"server,omitempty"`

	Google struct {
		ClientID       string   `json:"client_id"`
		ClientSecret   string   `json:"client_secret"`
		RedirectURL    string   `json:"redirect_url"`
		APIBaseURL     string   `json:"api_base_url"`
		UploadBaseURL  string   `json:"upload_base_url"`
		AuthURL        string   `json:"auth_url"`
		TokenURL       string   `json:"token_url"`
		RootFolderName string   `json:"root_folder_name"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"google,omitempty"`

	Workers struct {
		QuotaSyncInterval Duration `json:"quota_sync_interval"`
	} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			PasswordHashKey: jsonCfg.App.PasswordHashKey,
			TokenSignKey:    jsonCfg.App.TokenSignKey,
			TokenIssuer:     jsonCfg.App.TokenIssuer,
			TokenDuration:   time.Duration(jsonCfg.App.TokenDuration),
			CredentialsKey:  jsonCfg.App.CredentialsKey,
			PublicURL:       jsonCfg.App.PublicURL,
			FrontendURL:     jsonCfg.App.FrontendURL,
			Version:         jsonCfg.App.Version,
			LogLevel:        jsonCfg.App.LogLevel,
		},
		Storage: Storage{
			DB: DB{
				DSN:             jsonCfg.Storage.DB.DSN,
				MaxOpenConns:    jsonCfg.Storage.DB.MaxOpenConns,
				MaxIdleConns:    jsonCfg.Storage.DB.MaxIdleConns,
				RetryMaxElapsed: time.Duration(jsonCfg.Storage.DB.RetryMaxElapsed),
			},
			Redis: Redis{
				Address:  jsonCfg.Storage.Redis.Address,
				Password: jsonCfg.Storage.Redis.Password,
				DB:       jsonCfg.Storage.Redis.DB,
			},
		},
		Server: Server{
			HTTPAddress:     jsonCfg.Server.HTTPAddress,
			GRPCAddress:     jsonCfg.Server.GRPCAddress,
			RequestTimeout:  time.Duration(jsonCfg.Server.RequestTimeout),
			MaxUploadSize:   jsonCfg.Server.MaxUploadSize,
			PublicRateLimit: jsonCfg.Server.PublicRateLimit,
			TrustedProxies:  jsonCfg.Server.TrustedProxies,
		},
		Google: Google{
			ClientID:       jsonCfg.Google.ClientID,
			ClientSecret:   jsonCfg.Google.ClientSecret,
			RedirectURL:    jsonCfg.Google.RedirectURL,
			APIBaseURL:     jsonCfg.Google.APIBaseURL,
			UploadBaseURL:  jsonCfg.Google.UploadBaseURL,
			AuthURL:        jsonCfg.Google.AuthURL,
			TokenURL:       jsonCfg.Google.TokenURL,
			RootFolderName: jsonCfg.Google.RootFolderName,
			RequestTimeout: time.Duration(jsonCfg.Google.RequestTimeout),
		},
		Workers: Workers{
			QuotaSyncInterval: time.Duration(jsonCfg.Workers.QuotaSyncInterval),
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling
// from strings like "1h", "30s" as well as plain nanosecond numbers.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
