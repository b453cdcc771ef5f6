package database

import (
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/signature"
	"github.com/ardanlabs/powledger/foundation/validate"
)

func init() {
	validate.RegisterString("ledger_hash", signature.IsHash, "{0} must be a 64 character hex hash")
	validate.RegisterString("ledger_signature", signature.IsSignature, "{0} must be a well formed signature")
}

// =============================================================================

// TxData represents what is serialized to storage and sent over the network
// for a transaction. A coinbase transaction has a null fromAddress.
type TxData struct {
	FromAddress *string `json:"fromAddress"`
	ToAddress   string  `json:"toAddress"`
	Amount      uint64  `json:"amount" validate:"lte=9223372036854775807"`
	Timestamp   int64   `json:"timestamp" validate:"gte=0"`
	Signature   *string `json:"signature" validate:"omitempty,ledger_signature"`
}

// NewTxData constructs the record for a transaction.
func NewTxData(tx Tx) TxData {
	td := TxData{
		ToAddress: string(tx.ToAddress),
		Amount:    tx.Amount,
		Timestamp: tx.Timestamp,
	}

	if !tx.IsCoinbase() {
		from := string(tx.FromAddress)
		td.FromAddress = &from
	}

	if tx.Signature != "" {
		sig := tx.Signature
		td.Signature = &sig
	}

	return td
}

// ToTx validates the record and converts it into a transaction.
func ToTx(td TxData) (Tx, error) {
	if err := validate.Check(td); err != nil {
		return Tx{}, err
	}

	tx := Tx{
		ToAddress: AccountID(td.ToAddress),
		Amount:    td.Amount,
		Timestamp: td.Timestamp,
	}

	if td.FromAddress != nil {
		tx.FromAddress = AccountID(*td.FromAddress)
	}

	if td.Signature != nil {
		tx.Signature = *td.Signature
	}

	return tx, nil
}

// =============================================================================

// BlockData represents what is serialized to storage and sent over the
// network for a block.
type BlockData struct {
	Index        uint64   `json:"index"`
	Timestamp    int64    `json:"timestamp" validate:"gte=0"`
	Transactions []TxData `json:"transactions" validate:"dive"`
	PreviousHash string   `json:"previousHash" validate:"required"`
	Nonce        uint64   `json:"nonce"`
	Difficulty   uint     `json:"difficulty"`
	Hash         string   `json:"hash" validate:"required,ledger_hash"`
}

// NewBlockData constructs the record for a block.
func NewBlockData(block Block) BlockData {
	txs := make([]TxData, len(block.Transactions))
	for i, tx := range block.Transactions {
		txs[i] = NewTxData(tx)
	}

	return BlockData{
		Index:        block.Index,
		Timestamp:    block.Timestamp,
		Transactions: txs,
		PreviousHash: block.PreviousHash,
		Nonce:        block.Nonce,
		Difficulty:   block.Difficulty,
		Hash:         block.Hash,
	}
}

// ToBlock validates the record and converts it into a block. The stored hash
// is kept as is, checking it against the content is part of chain validation.
func ToBlock(bd BlockData) (Block, error) {
	if err := validate.Check(bd); err != nil {
		return Block{}, fmt.Errorf("blk[%d]: %w", bd.Index, err)
	}

	txs := make([]Tx, len(bd.Transactions))
	for i, td := range bd.Transactions {
		tx, err := ToTx(td)
		if err != nil {
			return Block{}, fmt.Errorf("blk[%d]: tx[%d]: %w", bd.Index, i, err)
		}
		txs[i] = tx
	}

	return Block{
		Index:        bd.Index,
		Timestamp:    bd.Timestamp,
		Transactions: txs,
		PreviousHash: bd.PreviousHash,
		Nonce:        bd.Nonce,
		Difficulty:   bd.Difficulty,
		Hash:         bd.Hash,
	}, nil
}

// =============================================================================

// NewChainData constructs the records for an ordered list of blocks.
func NewChainData(blocks []Block) []BlockData {
	data := make([]BlockData, len(blocks))
	for i, block := range blocks {
		data[i] = NewBlockData(block)
	}
	return data
}

// ToChain validates and converts an ordered list of block records.
func ToChain(data []BlockData) ([]Block, error) {
	blocks := make([]Block, len(data))
	for i, bd := range data {
		block, err := ToBlock(bd)
		if err != nil {
			return nil, err
		}
		blocks[i] = block
	}
	return blocks, nil
}

// NewPendingData constructs the records for a list of transactions.
func NewPendingData(txs []Tx) []TxData {
	data := make([]TxData, len(txs))
	for i, tx := range txs {
		data[i] = NewTxData(tx)
	}
	return data
}

// ToPending validates and converts a list of transaction records.
func ToPending(data []TxData) ([]Tx, error) {
	txs := make([]Tx, len(data))
	for i, td := range data {
		tx, err := ToTx(td)
		if err != nil {
			return nil, fmt.Errorf("tx[%d]: %w", i, err)
		}
		txs[i] = tx
	}
	return txs, nil
}
