// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/ardanlabs/powledger/business/web/errs"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ardanlabs/powledger/foundation/events"
	"github.com/ardanlabs/powledger/foundation/nameservice"
	"github.com/ardanlabs/powledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	web.SetStatusCode(ctx, http.StatusSwitchingProtocols)

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			c.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			c.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitWalletTransaction adds a new signed wallet transaction to the
// pending pool.
func (h Handlers) SubmitWalletTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var txData database.TxData
	if err := web.Decode(r, &txData); err != nil {
		if errs.IsTrusted(err) {
			return err
		}
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	tx, err := database.ToTx(txData)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("add user tran", "traceid", v.TraceID, "from", tx.FromAddress, "to", tx.ToAddress, "amount", tx.Amount)
	if err := h.State.SubmitWalletTransaction(tx); err != nil {
		return errs.FromLedger(err)
	}

	resp := struct {
		Status string `json:"status"`
		Hash   string `json:"hash"`
	}{
		Status: "transaction added to pending pool",
		Hash:   tx.CalculateHash(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SignalMining asks the node to mine the pending pool. The reward goes to
// the account, or account name, in the path and otherwise to the node's
// miner account.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	beneficiaryID := h.State.RetrieveMinerAccountID()

	if account := web.Param(r, "account"); account != "" {
		id, err := h.accountID(account)
		if err != nil {
			return err
		}
		beneficiaryID = id
	}

	if beneficiaryID == "" {
		return errs.NewTrusted(errors.New("no beneficiary account for mining"), http.StatusBadRequest)
	}

	h.State.Worker.SignalStartMining(beneficiaryID)

	resp := struct {
		Status      string             `json:"status"`
		Beneficiary database.AccountID `json:"beneficiary"`
	}{
		Status:      "mining signaled",
		Beneficiary: beneficiaryID,
	}

	return web.Respond(ctx, w, resp, http.StatusAccepted)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txs := toTxs(h.NS, h.State.RetrieveMempool())
	return web.Respond(ctx, w, txs, http.StatusOK)
}

// Accounts returns the current balances for all accounts or the account in
// the path.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var acts []info

	switch account := web.Param(r, "account"); account {
	case "":
		for accountID, balance := range h.State.QueryAccounts() {
			acts = append(acts, info{
				Account: accountID,
				Name:    h.NS.Lookup(accountID),
				Balance: balance,
			})
		}
		sort.Slice(acts, func(i, j int) bool { return acts[i].Account < acts[j].Account })

	default:
		accountID, err := h.accountID(account)
		if err != nil {
			return err
		}
		acts = []info{{
			Account: accountID,
			Name:    h.NS.Lookup(accountID),
			Balance: h.State.BalanceOf(accountID),
		}}
	}

	ai := actInfo{
		LatestBlock: h.State.RetrieveLatestBlock().Hash,
		Uncommitted: h.State.QueryMempoolLength(),
		Accounts:    acts,
	}

	return web.Respond(ctx, w, ai, http.StatusOK)
}

// BlocksByAccount returns all the blocks or the blocks holding transactions
// for the account in the path.
func (h Handlers) BlocksByAccount(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var accountID database.AccountID
	if account := web.Param(r, "account"); account != "" {
		id, err := h.accountID(account)
		if err != nil {
			return err
		}
		accountID = id
	}

	dbBlocks := h.State.QueryBlocksByAccount(accountID)
	if len(dbBlocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	blocks := make([]block, len(dbBlocks))
	for i, dbBlock := range dbBlocks {
		blocks[i] = toBlock(h.NS, dbBlock)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// accountID resolves an account from an address or a known account name.
func (h Handlers) accountID(account string) (database.AccountID, error) {
	if id, exists := h.NS.AccountID(account); exists {
		return id, nil
	}

	id, err := database.ToAccountID(account)
	if err != nil {
		return "", errs.NewTrusted(err, http.StatusBadRequest)
	}

	return id, nil
}
