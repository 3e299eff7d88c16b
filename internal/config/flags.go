package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// parseFlags parses configuration flags from args.
//
// Flags:
//
//	-a                   HTTP server address in format [host]:[port]
//	-grpc-address        gRPC health server address in format [host]:[port]
//	-d                   database DSN
//	-c/-config           JSON file path with configs
//	-password-hash-key   password hash key
//	-token-sign-key      token signing key
//	-token-issuer        token issuer name
//	-token-duration      token duration (e.g., "1h", "30m")
//	-credentials-key     secret used to encrypt stored provider credentials
//	-public-url          externally reachable API base URL
//	-frontend-url        web client base URL
//	-log-level           log level
//	-request-timeout     request timeout (e.g., "30s", "1m")
//	-max-upload-size     upload size limit in bytes
//	-redis               redis address in format [host]:[port]
//	-google-client-id    Google OAuth client ID
//	-google-client-secret Google OAuth client secret
//	-google-redirect-url Google OAuth redirect URL
//	-quota-sync-interval provider quota refresh interval
func parseFlags(args []string) (*StructuredConfig, error) {
	fs := flag.NewFlagSet("drive-pool", flag.ContinueOnError)

	var serverAddress, grpcServerAddress NetAddress
	var cfg StructuredConfig

	fs.Var(&serverAddress, "a", "Net address host:port")
	fs.Var(&grpcServerAddress, "grpc-address", "Net grpc server address host:port")
	fs.StringVar(&cfg.Storage.DB.DSN, "d", "", "Database DSN")
	fs.StringVar(&cfg.JSONFilePath, "c", "", "JSON config file path")
	fs.StringVar(&cfg.JSONFilePath, "config", "", "JSON config file path (alias)")
	fs.StringVar(&cfg.App.PasswordHashKey, "password-hash-key", "", "Password hash key")
	fs.StringVar(&cfg.App.TokenSignKey, "token-sign-key", "", "Token signing key")
	fs.StringVar(&cfg.App.TokenIssuer, "token-issuer", "", "Token issuer")
	fs.DurationVar(&cfg.App.TokenDuration, "token-duration", 0, "Token duration (e.g., 1h, 30m)")
	fs.StringVar(&cfg.App.CredentialsKey, "credentials-key", "", "Credentials encryption secret")
	fs.StringVar(&cfg.App.PublicURL, "public-url", "", "Public API base URL")
	fs.StringVar(&cfg.App.FrontendURL, "frontend-url", "", "Frontend base URL")
	fs.StringVar(&cfg.App.LogLevel, "log-level", "", "Log level")
	fs.DurationVar(&cfg.Server.RequestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	fs.Int64Var(&cfg.Server.MaxUploadSize, "max-upload-size", 0, "Upload size limit in bytes")
	fs.StringVar(&cfg.Storage.Redis.Address, "redis", "", "Redis address host:port")
	fs.StringVar(&cfg.Google.ClientID, "google-client-id", "", "Google OAuth client ID")
	fs.StringVar(&cfg.Google.ClientSecret, "google-client-secret", "", "Google OAuth client secret")
	fs.StringVar(&cfg.Google.RedirectURL, "google-redirect-url", "", "Google OAuth redirect URL")
	fs.DurationVar(&cfg.Workers.QuotaSyncInterval, "quota-sync-interval", 0, "Quota sync interval")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	cfg.Server.HTTPAddress = serverAddress.String()
	cfg.Server.GRPCAddress = grpcServerAddress.String()

	return &cfg, nil
}

// String returns a canonical host:port string for a NetAddress.
// It returns an empty string when neither Host nor Port are set.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost",
// and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 || port > 65535 {
		return errors.New("port number is a positive integer up to 65535")
	}

	if host != "localhost" && host != "" {
		ip := net.ParseIP(host)
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}

var _ flag.Value = (*NetAddress)(nil)
