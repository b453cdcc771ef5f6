// Package signature provides helper functions for handling the ledger
// hashing and signature needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ledgerID is an arbitrary number added to the recovery id of every
// signature. This will make it clear that the signature comes from this
// ledger. Ethereum and Bitcoin do this as well, but they use the value of 27.
const ledgerID = 29

// hashLength is the number of hex characters in a hash produced by Hash.
const hashLength = 2 * sha256.Size

// Set of error variables for handling address and signature decoding.
var (
	ErrInvalidAddress   = errors.New("invalid address")
	ErrInvalidSignature = errors.New("invalid signature")
)

// =============================================================================

// Hash returns a unique string for the value. The value is marshaled to
// JSON and the sha256 digest is returned as 64 lowercase hex characters.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ""
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// IsHash reports if the string has the shape of a value returned by Hash.
func IsHash(hash string) bool {
	if len(hash) != hashLength {
		return false
	}

	_, err := hex.DecodeString(hash)
	return err == nil
}

// =============================================================================

// PublicKeyToAddress converts the public key to the address used by the
// ledger. The address is the compressed public key in hex.
func PublicKeyToAddress(pk ecdsa.PublicKey) string {
	return hexutil.Encode(crypto.CompressPubkey(&pk))
}

// AddressToPublicKey decodes an address back into the public key it
// represents.
func AddressToPublicKey(address string) (*ecdsa.PublicKey, error) {
	data, err := hexutil.Decode(address)
	if err != nil {
		return nil, ErrInvalidAddress
	}

	pk, err := crypto.DecompressPubkey(data)
	if err != nil {
		return nil, ErrInvalidAddress
	}

	return pk, nil
}

// IsAddress reports if the string decodes into a valid public key.
func IsAddress(address string) bool {
	_, err := AddressToPublicKey(address)
	return err == nil
}

// =============================================================================

// Sign uses the specified private key to sign the value. There is no check
// that the key belongs to any particular address.
func Sign(value any, privateKey *ecdsa.PrivateKey) (string, error) {

	// Prepare the data for signing.
	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	// Sign the hash with the private key to produce a signature.
	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return "", err
	}

	// Add the ledger id to the recovery byte.
	sig[crypto.RecoveryIDOffset] += ledgerID

	return hexutil.Encode(sig), nil
}

// Verify checks the signature was produced over the value by the private
// key that belongs to the address. Any malformed input fails verification.
func Verify(value any, sig string, address string) bool {
	publicKey, err := AddressToPublicKey(address)
	if err != nil {
		return false
	}

	rs, err := toRS(sig)
	if err != nil {
		return false
	}

	data, err := stamp(value)
	if err != nil {
		return false
	}

	return crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, rs)
}

// IsSignature reports if the string is a well formed signature as produced
// by Sign. It does not verify the signature against any value.
func IsSignature(sig string) bool {
	_, err := toRS(sig)
	return err == nil
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents this data with
// the ledger stamp embedded into the final hash.
func stamp(value any) ([]byte, error) {

	// Marshal the data.
	v, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	// Hash the data into a 32 byte array. This will provide a data
	// length consistency with all data.
	txHash := crypto.Keccak256(v)

	// Signatures we produce are always unique to this ledger.
	stamp := []byte("\x19Ledger Signed Message:\n32")

	return crypto.Keccak256(stamp, txHash), nil
}

// toRS decodes the signature and checks its values, returning the 64
// byte [R|S] portion used for verification.
func toRS(sig string) ([]byte, error) {
	data, err := hexutil.Decode(sig)
	if err != nil || len(data) != crypto.SignatureLength {
		return nil, ErrInvalidSignature
	}

	// Check the recovery id is either 0 or 1.
	v := data[crypto.RecoveryIDOffset] - ledgerID
	if v != 0 && v != 1 {
		return nil, ErrInvalidSignature
	}

	r := new(big.Int).SetBytes(data[:32])
	s := new(big.Int).SetBytes(data[32:64])
	if !crypto.ValidateSignatureValues(v, r, s, false) {
		return nil, ErrInvalidSignature
	}

	return data[:crypto.RecoveryIDOffset], nil
}
