package database

import (
	"crypto/ecdsa"
	"errors"

	"github.com/ardanlabs/powledger/foundation/blockchain/signature"
)

// AccountID represents an account id that is used to sign transactions and is
// associated with transactions on the ledger. The account id is the hex
// encoded compressed public key of the account.
type AccountID string

// ToAccountID converts a hex-encoded string to an account and validates the
// hex-encoded string decodes into a public key.
func ToAccountID(hex string) (AccountID, error) {
	a := AccountID(hex)
	if !a.IsAccountID() {
		return "", errors.New("invalid account format")
	}

	return a, nil
}

// PublicKeyToAccountID converts the public key to an account value.
func PublicKeyToAccountID(pk ecdsa.PublicKey) AccountID {
	return AccountID(signature.PublicKeyToAddress(pk))
}

// IsAccountID verifies whether the underlying data represents a valid
// public key.
func (a AccountID) IsAccountID() bool {
	return signature.IsAddress(string(a))
}
