package ledger

import (
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v74"
	"invoicedesk/pkg/services"
)

var (
	// ErrMissingKey is returned when no API key is configured.
	ErrMissingKey = errors.New("no API key configured")

	// ErrInvalidKeyFormat is returned for keys that are neither secret (sk_)
	// nor restricted (rk_) keys.
	ErrInvalidKeyFormat = errors.New("invalid API key format")
)

// ValidateKey checks that key looks like a secret or restricted API key.
func ValidateKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrMissingKey
	}
	if !strings.HasPrefix(key, "sk_") && !strings.HasPrefix(key, "rk_") {
		return ErrInvalidKeyFormat
	}
	return nil
}

// translateError turns an SDK failure into a services.RemoteError carrying
// the upstream message unchanged.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return &services.RemoteError{
			Op:         op,
			Code:       string(stripeErr.Code),
			Type:       string(stripeErr.Type),
			StatusCode: stripeErr.HTTPStatusCode,
			RequestID:  stripeErr.RequestID,
			Message:    stripeErr.Msg,
			Err:        err,
		}
	}

	return &services.RemoteError{Op: op, Err: err}
}
