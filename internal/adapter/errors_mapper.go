package adapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// driveError is the error envelope of the Drive API.
type driveError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}
	return mapStatus(resp.StatusCode(), resp.Body())
}

// mapStatus maps a non-2xx provider status and body to a sentinel.
func mapStatus(status int, body []byte) error {
	message, reasons := parseDriveError(body)
	if message == "" {
		message = http.StatusText(status)
	}

	for _, reason := range reasons {
		switch reason {
		case "rateLimitExceeded", "userRateLimitExceeded":
			return fmt.Errorf("%w: %s", ErrRateLimited, message)
		case "storageQuotaExceeded", "quotaExceeded":
			return fmt.Errorf("%w: %s", ErrQuotaExceeded, message)
		}
	}

	switch {
	case status == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, message)
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, message)
	case status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, message)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, message)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, message)
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: http %d: %s", ErrProviderUnavailable, status, message)
	default:
		return fmt.Errorf("%w: http %d: %s", ErrRemoteStore, status, message)
	}
}

func parseDriveError(body []byte) (string, []string) {
	var envelope driveError
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Message == "" {
		return strings.TrimSpace(string(body)), nil
	}

	reasons := make([]string, 0, len(envelope.Error.Errors))
	for _, e := range envelope.Error.Errors {
		reasons = append(reasons, e.Reason)
	}
	return envelope.Error.Message, reasons
}
