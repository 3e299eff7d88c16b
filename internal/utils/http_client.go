package utils

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPClient embeds *resty.Client so that its methods are exposed directly,
// while allowing application-specific construction defaults.
//
//	client := utils.NewHTTPClient(30 * time.Second)
//	resp, err := client.R().Get("https://example.com")
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient creates an independent resty client with the given request
// timeout. A zero timeout leaves resty's default (no timeout).
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	client := resty.New()
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &HTTPClient{Client: client}
}
