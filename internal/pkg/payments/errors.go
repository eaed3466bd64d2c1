package payments

import "errors"

// Sentinel errors for the payment pipeline. Controllers map these onto
// redirects and JSON error responses.
var (
	ErrUnauthenticated           = errors.New("payments: request requires an authenticated user")
	ErrInvalidPlanConfiguration  = errors.New("payments: unsupported plan/currency combination")
	ErrProviderNotConfigured     = errors.New("payments: payment provider is not configured")
	ErrMissingCallbackParameters = errors.New("payments: confirmation callback is missing required parameters")
	ErrProviderRejected          = errors.New("payments: payment provider returned a non-success status")
	ErrInvalidSignature          = errors.New("payments: webhook signature verification failed")
	ErrNotFound                  = errors.New("payments: no matching subscription or purchase")
)
