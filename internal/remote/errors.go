package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/containerd/errdefs"
)

// PartialFailureError reports a bulk remote operation where only a subset of
// sub-operations failed. It carries the failed identifiers so the caller can
// retry or surface exactly those.
type PartialFailureError struct {
	Op     string
	Failed []string
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s: %d sub-operations failed (%s)",
		e.Op, len(e.Failed), strings.Join(e.Failed, ", "))
}

// IsPartialFailure reports whether err is (or wraps) a PartialFailureError.
func IsPartialFailure(err error) bool {
	var pf *PartialFailureError
	return errors.As(err, &pf)
}

// normalizeTransport maps transport-level failures onto the errdefs
// taxonomy. Timeouts and connection errors are transient and retryable.
func normalizeTransport(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("remote request: %w: %v", errdefs.ErrUnavailable, err)
	}
	return fmt.Errorf("remote unreachable: %w: %v", errdefs.ErrUnavailable, err)
}

// normalizeStatus maps a non-2xx response onto the errdefs taxonomy,
// preserving the server's message where one was sent.
func normalizeStatus(op string, status int, body []byte) error {
	msg := serverMessage(body)

	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%s: %s: %w", op, msg, errdefs.ErrNotFound)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return fmt.Errorf("%s: %s: %w", op, msg, errdefs.ErrInvalidArgument)
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%s: %s: %w", op, msg, errdefs.ErrUnauthenticated)
	case status == http.StatusForbidden:
		return fmt.Errorf("%s: %s: %w", op, msg, errdefs.ErrPermissionDenied)
	case status == http.StatusMultiStatus:
		return &PartialFailureError{Op: op, Failed: failedSubset(body)}
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return fmt.Errorf("%s: HTTP %d: %s: %w", op, status, msg, errdefs.ErrUnavailable)
	default:
		return fmt.Errorf("%s: HTTP %d: %s: %w", op, status, msg, errdefs.ErrUnknown)
	}
}

func serverMessage(body []byte) string {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error != "" {
			return envelope.Error
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return "remote error"
}

func failedSubset(body []byte) []string {
	var envelope struct {
		Failed []string `json:"failed"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	return envelope.Failed
}
