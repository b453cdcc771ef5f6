package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/powledger/foundation/blockchain/signature"
)

// GenesisPreviousHash is the previous hash recorded in the genesis block.
const GenesisPreviousHash = "0"

// ErrBlockNotExtending is returned when a block can't be appended to the
// current tip of the chain.
var ErrBlockNotExtending = errors.New("block does not extend the chain")

// =============================================================================

// Block represents a group of transactions batched together.
type Block struct {
	Index        uint64 // Height of the block, genesis is 0.
	Timestamp    int64  // Unix milliseconds when the block was created.
	Transactions []Tx
	PreviousHash string
	Nonce        uint64 // Value identified to solve the hash solution.
	Difficulty   uint   // Number of leading hex 0's needed to solve the hash solution.
	Hash         string
}

// NewBlock constructs an unmined block. The hash is computed for the
// starting nonce of 0.
func NewBlock(index uint64, timestamp int64, txs []Tx, previousHash string, difficulty uint) Block {
	b := Block{
		Index:        index,
		Timestamp:    timestamp,
		Transactions: txs,
		PreviousHash: previousHash,
		Difficulty:   difficulty,
	}
	b.Hash = b.ComputeHash()

	return b
}

// NewGenesisBlock constructs the first block of the chain from the genesis
// information. It is not mined, it's the trust root of the chain.
func NewGenesisBlock(gen genesis.Genesis) Block {
	return NewBlock(0, gen.Date.UnixMilli(), []Tx{}, GenesisPreviousHash, gen.Difficulty)
}

// blockContent is the set of fields covered by the block hash.
type blockContent struct {
	Index        uint64   `json:"index"`
	PreviousHash string   `json:"previousHash"`
	Timestamp    int64    `json:"timestamp"`
	Transactions []TxData `json:"transactions"`
	Nonce        uint64   `json:"nonce"`
}

// ComputeHash returns the unique hash for the block content. The stored
// hash and the difficulty are not part of the hash.
func (b Block) ComputeHash() string {
	txs := make([]TxData, len(b.Transactions))
	for i, tx := range b.Transactions {
		txs[i] = NewTxData(tx)
	}

	return signature.Hash(blockContent{
		Index:        b.Index,
		PreviousHash: b.PreviousHash,
		Timestamp:    b.Timestamp,
		Transactions: txs,
		Nonce:        b.Nonce,
	})
}

// Mine does the work of finding a nonce that produces a hash with the
// required number of leading zeros. Pointer semantics are being used since a
// nonce is being discovered. The context is only used to stop the search
// when the node is shutting down.
func (b *Block) Mine(ctx context.Context, evHandler func(v string, args ...any)) error {
	evHandler("database: Mine: MINING: started: blk[%d]", b.Index)
	defer evHandler("database: Mine: MINING: completed: blk[%d]", b.Index)

	for _, tx := range b.Transactions {
		evHandler("database: Mine: MINING: tx[%s]", tx)
	}

	b.Nonce = 0

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			evHandler("database: Mine: MINING: attempts[%d]", attempts)
		}

		if ctx.Err() != nil {
			evHandler("database: Mine: MINING: CANCELLED")
			return ctx.Err()
		}

		hash := b.ComputeHash()
		if !isHashSolved(b.Difficulty, hash) {
			b.Nonce++
			continue
		}

		b.Hash = hash
		evHandler("database: Mine: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: attempts[%d]", b.PreviousHash, hash, attempts)

		return nil
	}
}

// ValidateExtension checks the block can be appended on top of the
// specified tip. It must link to the tip's hash, its stored hash must match
// its content, its index must follow the tip's, its timestamp can't go
// backwards and every transaction must be valid.
func (b Block) ValidateExtension(tip Block) error {
	if b.PreviousHash != tip.Hash {
		return fmt.Errorf("%w: previous hash[%s] doesn't match tip hash[%s]", ErrBlockNotExtending, b.PreviousHash, tip.Hash)
	}

	if hash := b.ComputeHash(); hash != b.Hash {
		return fmt.Errorf("%w: block hash[%s] doesn't match computed hash[%s]", ErrBlockNotExtending, b.Hash, hash)
	}

	if b.Index != tip.Index+1 {
		return fmt.Errorf("%w: block index[%d] doesn't follow tip index[%d]", ErrBlockNotExtending, b.Index, tip.Index)
	}

	if b.Timestamp < tip.Timestamp {
		return fmt.Errorf("%w: block timestamp[%d] is before tip timestamp[%d]", ErrBlockNotExtending, b.Timestamp, tip.Timestamp)
	}

	if err := b.validateTransactions(); err != nil {
		return fmt.Errorf("%w: %w", ErrBlockNotExtending, err)
	}

	return nil
}

// validateTransactions checks the signature of every transaction in the block.
func (b Block) validateTransactions() error {
	for _, tx := range b.Transactions {
		valid, err := tx.IsValid()
		if err != nil {
			return fmt.Errorf("tx[%s]: %w", tx, err)
		}
		if !valid {
			return fmt.Errorf("tx[%s]: invalid signature", tx)
		}
	}

	return nil
}

// IsMined reports if the stored hash satisfies the difficulty.
func (b Block) IsMined() bool {
	return isHashSolved(b.Difficulty, b.Hash)
}

// =============================================================================

// isHashSolved checks the hash to make sure it complies with the POW rules.
// We need to match a difficulty number of 0's.
func isHashSolved(difficulty uint, hash string) bool {
	if uint(len(hash)) < difficulty {
		return false
	}

	return strings.Count(hash[:difficulty], "0") == int(difficulty)
}
