package telegram

import (
	"errors"
	"fmt"
	"time"
)

// Reason classifies a delivery failure.
type Reason string

const (
	ReasonAuthError       Reason = "auth_error"
	ReasonRateLimited     Reason = "rate_limited"
	ReasonPayloadTooLarge Reason = "payload_too_large"
	ReasonNetworkError    Reason = "network_error"
	ReasonUnknown         Reason = "unknown"
)

// DeliveryError is a typed delivery failure. Only ReasonRateLimited is
// retryable; every other reason is terminal for the item within the cycle.
type DeliveryError struct {
	Reason     Reason
	RetryAfter time.Duration
	Detail     string
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("delivery failed (%s): %s: %v", e.Reason, e.Detail, e.Err)
	}
	return fmt.Sprintf("delivery failed (%s): %s", e.Reason, e.Detail)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure may be retried within the same job.
func (e *DeliveryError) Retryable() bool {
	return e.Reason == ReasonRateLimited
}

// AsDeliveryError extracts a DeliveryError from err when present.
func AsDeliveryError(err error) (*DeliveryError, bool) {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
