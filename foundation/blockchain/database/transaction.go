package database

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/signature"
)

// ErrUnsignedTransaction is returned when a non-coinbase transaction is
// checked for validity before it was signed.
var ErrUnsignedTransaction = errors.New("unsigned transaction")

// =============================================================================

// Tx is the transactional information between two parties. A transaction
// with no FromAddress is a coinbase transaction minting the mining reward.
type Tx struct {
	FromAddress AccountID
	ToAddress   AccountID
	Amount      uint64
	Timestamp   int64 // Unix milliseconds.
	Signature   string
}

// NewTx constructs a new unsigned transaction stamped with the current time.
func NewTx(from AccountID, to AccountID, amount uint64) Tx {
	return Tx{
		FromAddress: from,
		ToAddress:   to,
		Amount:      amount,
		Timestamp:   time.Now().UnixMilli(),
	}
}

// NewCoinbaseTx constructs the reward transaction paid to a miner.
func NewCoinbaseTx(to AccountID, reward uint64) Tx {
	return NewTx("", to, reward)
}

// txContent is the set of fields covered by the transaction hash. The
// signature is not part of the hash.
type txContent struct {
	FromAddress AccountID `json:"fromAddress"`
	ToAddress   AccountID `json:"toAddress"`
	Amount      uint64    `json:"amount"`
	Timestamp   int64     `json:"timestamp"`
}

// CalculateHash returns the deterministic hash of the transaction content.
func (tx Tx) CalculateHash() string {
	return signature.Hash(txContent{
		FromAddress: tx.FromAddress,
		ToAddress:   tx.ToAddress,
		Amount:      tx.Amount,
		Timestamp:   tx.Timestamp,
	})
}

// Sign uses the specified private key to sign the transaction hash and
// returns the signed copy. There is no check the key belongs to FromAddress,
// a mismatch will fail validation later.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (Tx, error) {
	sig, err := signature.Sign(tx.CalculateHash(), privateKey)
	if err != nil {
		return Tx{}, err
	}

	tx.Signature = sig
	return tx, nil
}

// IsCoinbase reports if this is a reward transaction.
func (tx Tx) IsCoinbase() bool {
	return tx.FromAddress == ""
}

// IsValid checks the signature of the transaction against the FromAddress.
// Coinbase transactions are always valid. A transaction with no signature
// returns ErrUnsignedTransaction. A bad signature is reported as false with
// no error.
func (tx Tx) IsValid() (bool, error) {
	if tx.IsCoinbase() {
		return true, nil
	}

	if tx.Signature == "" {
		return false, ErrUnsignedTransaction
	}

	return signature.Verify(tx.CalculateHash(), tx.Signature, string(tx.FromAddress)), nil
}

// UniqueKey returns the key identifying the transaction in the pending pool
// and across peers.
func (tx Tx) UniqueKey() string {
	return fmt.Sprintf("%s:%s:%d:%d", tx.FromAddress, tx.ToAddress, tx.Amount, tx.Timestamp)
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	from := "coinbase"
	if !tx.IsCoinbase() {
		from = short(tx.FromAddress)
	}

	return fmt.Sprintf("%s->%s:%d:%d", from, short(tx.ToAddress), tx.Amount, tx.Timestamp)
}

// short returns the first characters of an account for log lines.
func short(a AccountID) string {
	const n = 10
	if len(a) <= n {
		return string(a)
	}
	return string(a[:n])
}
