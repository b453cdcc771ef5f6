package public

import (
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/nameservice"
)

type tx struct {
	Hash        string             `json:"hash"`
	FromAccount database.AccountID `json:"fromAddress,omitempty"`
	FromName    string             `json:"fromName,omitempty"`
	To          database.AccountID `json:"toAddress"`
	ToName      string             `json:"toName"`
	Amount      uint64             `json:"amount"`
	Timestamp   int64              `json:"timestamp"`
	Coinbase    bool               `json:"coinbase"`
	Sig         string             `json:"signature,omitempty"`
}

func toTx(ns *nameservice.NameService, dbTx database.Tx) tx {
	t := tx{
		Hash:      dbTx.CalculateHash(),
		To:        dbTx.ToAddress,
		ToName:    ns.Lookup(dbTx.ToAddress),
		Amount:    dbTx.Amount,
		Timestamp: dbTx.Timestamp,
		Coinbase:  dbTx.IsCoinbase(),
		Sig:       dbTx.Signature,
	}

	if !t.Coinbase {
		t.FromAccount = dbTx.FromAddress
		t.FromName = ns.Lookup(dbTx.FromAddress)
	}

	return t
}

func toTxs(ns *nameservice.NameService, dbTxs []database.Tx) []tx {
	txs := make([]tx, len(dbTxs))
	for i, dbTx := range dbTxs {
		txs[i] = toTx(ns, dbTx)
	}
	return txs
}

type block struct {
	Index        uint64 `json:"index"`
	Hash         string `json:"hash"`
	PreviousHash string `json:"previousHash"`
	Timestamp    int64  `json:"timestamp"`
	Nonce        uint64 `json:"nonce"`
	Difficulty   uint   `json:"difficulty"`
	Transactions []tx   `json:"transactions"`
}

func toBlock(ns *nameservice.NameService, dbBlock database.Block) block {
	return block{
		Index:        dbBlock.Index,
		Hash:         dbBlock.Hash,
		PreviousHash: dbBlock.PreviousHash,
		Timestamp:    dbBlock.Timestamp,
		Nonce:        dbBlock.Nonce,
		Difficulty:   dbBlock.Difficulty,
		Transactions: toTxs(ns, dbBlock.Transactions),
	}
}

type info struct {
	Account database.AccountID `json:"account"`
	Name    string             `json:"name"`
	Balance int64              `json:"balance"`
}

type actInfo struct {
	LatestBlock string `json:"latestBlock"`
	Uncommitted int    `json:"uncommitted"`
	Accounts    []info `json:"accounts"`
}
