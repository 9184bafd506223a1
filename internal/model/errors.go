package model

import "errors"

// Error kinds shared across layers. Wrap them with fmt.Errorf("...: %w", ...)
// and classify with errors.Is.
var (
	ErrNetworkFailure       = errors.New("network failure")
	ErrMalformedResponse    = errors.New("malformed response")
	ErrDivisionByZero       = errors.New("division by zero")
	ErrDocumentParseFailure = errors.New("document parse failure")
	ErrUnknownTicker        = errors.New("unknown ticker")
)
