package replicator

import (
	"errors"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// handle applies a message received from a peer to the local ledger.
func (r *Replicator) handle(c *conn, msg Message) {
	switch msg.Type {
	case MessageChain:
		r.handleChain(c, msg)

	case MessageTransaction:
		r.handleTransaction(c, msg)

	case MessageBlock:
		r.handleBlock(c, msg)

	case MessageRequestChain:
		r.evHandler("replicator: handle: peer[%s]: chain requested", c.host)
		r.sendChain(c)

	default:
		r.evHandler("replicator: handle: peer[%s]: malformed message: missing or unknown type %s", c.host, msg.Type)
	}
}

// handleChain replaces the local chain when the peer's chain is valid and
// longer.
func (r *Replicator) handleChain(c *conn, msg Message) {
	var data []database.BlockData
	if err := msg.Decode(&data); err != nil {
		r.evHandler("replicator: handleChain: peer[%s]: ERROR: %s", c.host, err)
		return
	}

	candidate, err := database.ToChain(data)
	if err != nil {
		r.evHandler("replicator: handleChain: peer[%s]: ERROR: %s", c.host, err)
		return
	}

	replaced, err := r.ledger.ReplaceChain(candidate)
	switch {
	case err != nil:
		r.evHandler("replicator: handleChain: peer[%s]: rejected: %s", c.host, err)
	case replaced:
		r.evHandler("replicator: handleChain: peer[%s]: replaced: blocks[%d]", c.host, len(candidate))
	default:
		r.evHandler("replicator: handleChain: peer[%s]: ignored: blocks[%d]", c.host, len(candidate))
	}
}

// handleTransaction admits a transaction shared by a peer. Transactions
// already pending or failing validation are dropped.
func (r *Replicator) handleTransaction(c *conn, msg Message) {
	var data database.TxData
	if err := msg.Decode(&data); err != nil {
		r.evHandler("replicator: handleTransaction: peer[%s]: ERROR: %s", c.host, err)
		return
	}

	tx, err := database.ToTx(data)
	if err != nil {
		r.evHandler("replicator: handleTransaction: peer[%s]: ERROR: %s", c.host, err)
		return
	}

	if r.ledger.HasPending(tx) {
		r.evHandler("replicator: handleTransaction: peer[%s]: already pending: %s", c.host, tx)
		return
	}

	if valid, err := tx.IsValid(); err != nil || !valid {
		r.evHandler("replicator: handleTransaction: peer[%s]: invalid: %s", c.host, tx)
		return
	}

	if err := r.ledger.AdmitTransaction(tx); err != nil {
		r.evHandler("replicator: handleTransaction: peer[%s]: not admitted: %s", c.host, err)
		return
	}

	r.evHandler("replicator: handleTransaction: peer[%s]: admitted: %s", c.host, tx)
}

// handleBlock appends a block mined by a peer when it extends the local tip.
// Blocks that don't are dropped, the local chain catches up on the next
// chain exchange.
func (r *Replicator) handleBlock(c *conn, msg Message) {
	var data database.BlockData
	if err := msg.Decode(&data); err != nil {
		r.evHandler("replicator: handleBlock: peer[%s]: ERROR: %s", c.host, err)
		return
	}

	block, err := database.ToBlock(data)
	if err != nil {
		r.evHandler("replicator: handleBlock: peer[%s]: ERROR: %s", c.host, err)
		return
	}

	if err := r.ledger.ExtendChain(block); err != nil {
		if errors.Is(err, database.ErrBlockNotExtending) {
			return
		}
		r.evHandler("replicator: handleBlock: peer[%s]: ERROR: %s", c.host, err)
		return
	}

	r.evHandler("replicator: handleBlock: peer[%s]: added: blk[%d]", c.host, block.Index)
}
