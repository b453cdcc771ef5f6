package state

import (
	"errors"
	"fmt"
	"math"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// Set of errors returned when a transaction is not admitted to the
// pending pool.
var (
	ErrMissingAddress      = errors.New("transaction must include from and to address")
	ErrInvalidTransaction  = errors.New("cannot add invalid transaction to chain")
	ErrInsufficientBalance = errors.New("not enough balance")
)

// AdmitTransaction validates the transaction and appends it to the pending
// pool. The balance check only considers committed blocks, transactions
// already waiting in the pool are not subtracted. A transaction already in
// the pool is accepted without being added twice.
func (s *State) AdmitTransaction(tx database.Tx) error {
	if tx.FromAddress == "" || tx.ToAddress == "" {
		return ErrMissingAddress
	}

	valid, err := tx.IsValid()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}
	if !valid {
		return ErrInvalidTransaction
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	balance := database.Balance(s.chain, tx.FromAddress)
	if tx.Amount > math.MaxInt64 || balance < int64(tx.Amount) {
		return fmt.Errorf("%w: balance[%d] amount[%d]", ErrInsufficientBalance, balance, tx.Amount)
	}

	count, added := s.mempool.Upsert(tx)
	if !added {
		s.evHandler("state: AdmitTransaction: duplicate: tx[%s]", tx)
		return nil
	}
	s.writePending()

	s.evHandler("state: AdmitTransaction: added: tx[%s] pending[%d]", tx, count)
	s.evHandler("viewer: tx: pending: %s", tx)

	return nil
}

// SubmitWalletTransaction admits a transaction from a wallet and signals the
// worker to share it with the connected peers.
func (s *State) SubmitWalletTransaction(tx database.Tx) error {
	if err := s.AdmitTransaction(tx); err != nil {
		return err
	}

	s.Worker.SignalShareTx(tx)

	if s.autoMine {
		s.Worker.SignalStartMining(s.minerAccountID)
	}

	return nil
}

// HasPending reports if a transaction with the same unique key is waiting
// in the pending pool.
func (s *State) HasPending(tx database.Tx) bool {
	return s.mempool.Exists(tx)
}
