// Package errs provides types and support related to web v1 functionality.
package errs

import (
	"errors"
	"net/http"

	"github.com/ardanlabs/powledger/foundation/blockchain/state"
)

// Response is the form used for API responses from failures in the API.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (re *Trusted) Error() string {
	return re.Err.Error()
}

// Unwrap returns the wrapped error.
func (re *Trusted) Unwrap() error {
	return re.Err
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var re *Trusted
	return errors.As(err, &re)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var re *Trusted
	if !errors.As(err, &re) {
		return nil
	}
	return re
}

// =============================================================================

// ledgerStatus maps the errors the ledger reports for bad input to the
// status a client receives.
var ledgerStatus = []struct {
	err    error
	status int
}{
	{state.ErrMissingAddress, http.StatusBadRequest},
	{state.ErrInvalidTransaction, http.StatusBadRequest},
	{state.ErrInsufficientBalance, http.StatusUnprocessableEntity},
	{state.ErrInvalidChain, http.StatusUnprocessableEntity},
	{state.ErrChainChanged, http.StatusConflict},
}

// FromLedger converts an error returned by the ledger into a trusted error
// when it was caused by the request. Any other error is returned as is.
func FromLedger(err error) error {
	if err == nil {
		return nil
	}

	for _, ls := range ledgerStatus {
		if errors.Is(err, ls.err) {
			return NewTrusted(err, ls.status)
		}
	}

	return err
}
