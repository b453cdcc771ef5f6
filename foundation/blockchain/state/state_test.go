package state_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage/disk"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	aliceKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	bobKey   = "aed31b6b5a0ea4ff6a2b0dca14e8a8f6bfb5b0c21ba7bb9ff4c3f4b8b6dc2c1e"
	minerKey = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
)

func ifErrFailNow(t *testing.T, err error) {
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
}

// account holds a key pair for a test account.
type account struct {
	id  database.AccountID
	key string
}

func newAccount(t *testing.T, hexKey string) account {
	pk, err := crypto.HexToECDSA(hexKey)
	ifErrFailNow(t, err)

	return account{id: database.PublicKeyToAccountID(pk.PublicKey), key: hexKey}
}

func (a account) send(t *testing.T, to account, amount uint64) database.Tx {
	pk, err := crypto.HexToECDSA(a.key)
	ifErrFailNow(t, err)

	tx, err := database.NewTx(a.id, to.id, amount).Sign(pk)
	ifErrFailNow(t, err)

	return tx
}

func newState(t *testing.T, strg database.Storage) *state.State {
	if strg == nil {
		strg = memory.New()
	}

	st, err := state.New(state.Config{
		Genesis:   genesis.Default(),
		Storage:   strg,
		EvHandler: func(v string, args ...any) { t.Logf(v, args...) },
	})
	ifErrFailNow(t, err)

	return st
}

func mine(t *testing.T, st *state.State, beneficiary account) database.Block {
	block, err := st.MinePendingBlock(context.Background(), beneficiary.id)
	ifErrFailNow(t, err)

	return block
}

// =============================================================================

func Test_AdmitTransaction(t *testing.T) {
	alice := newAccount(t, aliceKey)
	bob := newAccount(t, bobKey)

	st := newState(t, nil)
	mine(t, st, alice)

	unsigned := database.NewTx(alice.id, bob.id, 10)

	forged := bob.send(t, alice, 10)
	forged.FromAddress = alice.id
	forged.ToAddress = bob.id

	type table struct {
		name string
		tx   database.Tx
		err  error
	}

	tt := []table{
		{name: "missing-to", tx: database.Tx{FromAddress: alice.id, Amount: 1, Timestamp: 1}, err: state.ErrMissingAddress},
		{name: "missing-from", tx: database.NewCoinbaseTx(bob.id, 50), err: state.ErrMissingAddress},
		{name: "unsigned", tx: unsigned, err: database.ErrUnsignedTransaction},
		{name: "forged", tx: forged, err: state.ErrInvalidTransaction},
		{name: "insufficient", tx: alice.send(t, bob, 51), err: state.ErrInsufficientBalance},
		{name: "no-balance", tx: bob.send(t, alice, 1), err: state.ErrInsufficientBalance},
		{name: "valid", tx: alice.send(t, bob, 50), err: nil},
	}

	t.Log("Given the need to admit transactions to the pending pool.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				before := st.QueryMempoolLength()

				err := st.AdmitTransaction(tst.tx)
				if !errors.Is(err, tst.err) {
					t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, err)
					t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, tst.err)
					t.Fatalf("\t%s\tTest %d:\tShould get back the right error.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould get back the right error.", success, testID)

				exp := before
				if tst.err == nil {
					exp++
				}
				if got := st.QueryMempoolLength(); got != exp {
					t.Fatalf("\t%s\tTest %d:\tShould have %d pending transactions: got %d", failed, testID, exp, got)
				}
				t.Logf("\t%s\tTest %d:\tShould have the right number of pending transactions.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}

	err := st.AdmitTransaction(unsigned)
	if !errors.Is(err, state.ErrInvalidTransaction) {
		t.Fatalf("\t%s\tShould report an unsigned transaction as invalid: %v", failed, err)
	}
	t.Logf("\t%s\tShould report an unsigned transaction as invalid.", success)
}

func Test_MinePendingBlock(t *testing.T) {
	alice := newAccount(t, aliceKey)
	bob := newAccount(t, bobKey)
	miner := newAccount(t, minerKey)

	st := newState(t, nil)

	t.Log("Given the need to mine the pending pool.")
	{
		block := mine(t, st, alice)
		if block.Index != 1 || len(block.Transactions) != 1 || !block.Transactions[0].IsCoinbase() {
			t.Fatalf("\t%s\tShould mine a block with only the reward: %+v", failed, block)
		}
		if got := st.BalanceOf(alice.id); got != 50 {
			t.Fatalf("\t%s\tShould credit the reward: got %d", failed, got)
		}
		t.Logf("\t%s\tShould mine an empty pool and credit the reward.", success)

		ifErrFailNow(t, st.AdmitTransaction(alice.send(t, bob, 20)))

		block = mine(t, st, miner)
		if len(block.Transactions) != 2 || !block.Transactions[1].IsCoinbase() {
			t.Fatalf("\t%s\tShould append the reward after the pending transactions.", failed)
		}
		if st.QueryMempoolLength() != 0 {
			t.Fatalf("\t%s\tShould clear the pending pool.", failed)
		}
		t.Logf("\t%s\tShould bundle the pending pool and clear it.", success)

		balances := map[database.AccountID]int64{alice.id: 30, bob.id: 20, miner.id: 50}
		for id, exp := range balances {
			if got := st.BalanceOf(id); got != exp {
				t.Fatalf("\t%s\tShould get balance %d: got %d", failed, exp, got)
			}
		}
		t.Logf("\t%s\tShould derive the right balances.", success)

		if !st.IsValid() || st.QueryChainLength() != 3 {
			t.Fatalf("\t%s\tShould have a valid chain of 3 blocks.", failed)
		}
		t.Logf("\t%s\tShould have a valid chain of 3 blocks.", success)

		if _, err := st.MinePendingBlock(context.Background(), ""); !errors.Is(err, state.ErrMissingAddress) {
			t.Fatalf("\t%s\tShould require a beneficiary: %v", failed, err)
		}
		t.Logf("\t%s\tShould require a beneficiary.", success)
	}
}

func Test_DoubleSpendGap(t *testing.T) {
	alice := newAccount(t, aliceKey)
	bob := newAccount(t, bobKey)
	miner := newAccount(t, minerKey)

	st := newState(t, nil)
	mine(t, st, alice)

	t.Log("Given the need to document the pending pool double spend gap.")
	{
		ifErrFailNow(t, st.AdmitTransaction(alice.send(t, bob, 30)))
		t.Logf("\t%s\tShould admit the first spend of 30 from 50.", success)

		if err := st.AdmitTransaction(alice.send(t, miner, 30)); err != nil {
			t.Fatalf("\t%s\tShould admit the second spend since pending spends are not counted: %s", failed, err)
		}
		t.Logf("\t%s\tShould admit the second spend since pending spends are not counted.", success)

		mine(t, st, miner)

		if !st.IsValid() {
			t.Fatalf("\t%s\tShould still have a valid chain.", failed)
		}
		if got := st.BalanceOf(alice.id); got != -10 {
			t.Fatalf("\t%s\tShould overdraw the sender: got %d", failed, got)
		}
		t.Logf("\t%s\tShould overdraw the sender once both are mined.", success)

		if err := st.AdmitTransaction(alice.send(t, bob, 1)); !errors.Is(err, state.ErrInsufficientBalance) {
			t.Fatalf("\t%s\tShould reject spends once the committed balance is gone: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject spends once the committed balance is gone.", success)
	}
}

func Test_ReplaceChain(t *testing.T) {
	alice := newAccount(t, aliceKey)
	bob := newAccount(t, bobKey)

	local := newState(t, nil)
	mine(t, local, alice)
	mine(t, local, alice)

	peer := newState(t, nil)
	for range 4 {
		mine(t, peer, alice)
	}

	short := newState(t, nil)
	mine(t, short, bob)

	t.Log("Given the need to apply the longest valid chain rule.")
	{
		tampered := peer.RetrieveChain()
		txs := append([]database.Tx(nil), tampered[3].Transactions...)
		txs[0].Amount = 5000
		tampered[3].Transactions = txs

		replaced, err := local.ReplaceChain(tampered)
		if replaced || !errors.Is(err, state.ErrInvalidChain) {
			t.Fatalf("\t%s\tShould reject a longer invalid chain: %v %v", failed, replaced, err)
		}
		if local.QueryChainLength() != 3 {
			t.Fatalf("\t%s\tShould keep the local chain after rejecting.", failed)
		}
		t.Logf("\t%s\tShould reject a longer invalid chain.", success)

		replaced, err = local.ReplaceChain(short.RetrieveChain())
		if replaced || err != nil {
			t.Fatalf("\t%s\tShould ignore a shorter chain: %v %v", failed, replaced, err)
		}
		t.Logf("\t%s\tShould ignore a shorter chain.", success)

		replaced, err = local.ReplaceChain(local.RetrieveChain())
		if replaced || err != nil {
			t.Fatalf("\t%s\tShould ignore a chain of equal length: %v %v", failed, replaced, err)
		}
		t.Logf("\t%s\tShould ignore a chain of equal length.", success)

		// A pending transaction from the peer chain is removed on adoption.
		ifErrFailNow(t, peer.AdmitTransaction(alice.send(t, bob, 10)))
		pending := peer.RetrieveMempool()
		mine(t, peer, bob)

		ifErrFailNow(t, local.AdmitTransaction(pending[0]))

		replaced, err = local.ReplaceChain(peer.RetrieveChain())
		if !replaced || err != nil {
			t.Fatalf("\t%s\tShould adopt a longer valid chain: %v %v", failed, replaced, err)
		}
		if local.QueryChainLength() != 6 || local.RetrieveLatestBlock().Hash != peer.RetrieveLatestBlock().Hash {
			t.Fatalf("\t%s\tShould match the peer chain.", failed)
		}
		if local.BalanceOf(alice.id) != 190 || local.BalanceOf(bob.id) != 60 {
			t.Fatalf("\t%s\tShould derive balances from the adopted chain: %d", failed, local.BalanceOf(alice.id))
		}
		if local.QueryMempoolLength() != 0 {
			t.Fatalf("\t%s\tShould prune pending transactions found in the adopted chain.", failed)
		}
		t.Logf("\t%s\tShould adopt a longer valid chain.", success)
	}
}

func Test_ExtendChain(t *testing.T) {
	alice := newAccount(t, aliceKey)
	bob := newAccount(t, bobKey)

	local := newState(t, nil)
	peer := newState(t, nil)

	t.Log("Given the need to extend the chain with blocks from peers.")
	{
		b1 := mine(t, peer, alice)
		ifErrFailNow(t, local.ExtendChain(b1))
		t.Logf("\t%s\tShould extend with a block on the local tip.", success)

		ifErrFailNow(t, peer.AdmitTransaction(alice.send(t, bob, 5)))
		ifErrFailNow(t, local.AdmitTransaction(peer.RetrieveMempool()[0]))
		ifErrFailNow(t, local.AdmitTransaction(alice.send(t, bob, 7)))

		b2 := mine(t, peer, bob)
		b3 := mine(t, peer, bob)

		if err := local.ExtendChain(b3); !errors.Is(err, database.ErrBlockNotExtending) {
			t.Fatalf("\t%s\tShould drop a block that skips the tip: %v", failed, err)
		}
		if local.QueryMempoolLength() != 2 || local.QueryChainLength() != 2 {
			t.Fatalf("\t%s\tShould leave the chain and pool unchanged.", failed)
		}
		t.Logf("\t%s\tShould drop a block that does not build on the tip.", success)

		ifErrFailNow(t, local.ExtendChain(b2))
		if local.QueryMempoolLength() != 1 {
			t.Fatalf("\t%s\tShould prune only the included transaction: %d", failed, local.QueryMempoolLength())
		}
		t.Logf("\t%s\tShould prune the pending transactions in the block.", success)

		if err := local.ExtendChain(b2); !errors.Is(err, database.ErrBlockNotExtending) {
			t.Fatalf("\t%s\tShould drop a block already in the chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould drop a block already in the chain.", success)
	}
}

func Test_Persistence(t *testing.T) {
	alice := newAccount(t, aliceKey)
	bob := newAccount(t, bobKey)

	strg := memory.New()

	st := newState(t, strg)
	mine(t, st, alice)
	ifErrFailNow(t, st.AdmitTransaction(alice.send(t, bob, 15)))
	mine(t, st, bob)
	ifErrFailNow(t, st.AdmitTransaction(alice.send(t, bob, 5)))

	t.Log("Given the need to load the ledger from storage.")
	{
		loaded := newState(t, strg)

		if loaded.QueryChainLength() != st.QueryChainLength() || !loaded.IsValid() {
			t.Fatalf("\t%s\tShould load a valid chain of the same length.", failed)
		}
		t.Logf("\t%s\tShould load a valid chain of the same length.", success)

		for _, a := range []account{alice, bob} {
			if loaded.BalanceOf(a.id) != st.BalanceOf(a.id) {
				t.Fatalf("\t%s\tShould load the same balances.", failed)
			}
		}
		t.Logf("\t%s\tShould load the same balances.", success)

		if loaded.QueryMempoolLength() != 1 || !loaded.HasPending(st.RetrieveMempool()[0]) {
			t.Fatalf("\t%s\tShould load the pending pool.", failed)
		}
		t.Logf("\t%s\tShould load the pending pool.", success)

		ifErrFailNow(t, loaded.Save())
		ifErrFailNow(t, loaded.Load())
		if loaded.QueryChainLength() != 3 {
			t.Fatalf("\t%s\tShould save and reload the chain.", failed)
		}
		t.Logf("\t%s\tShould save and reload the chain.", success)
	}
}

func Test_RejectPeerBlocks(t *testing.T) {
	alice := newAccount(t, aliceKey)
	bob := newAccount(t, bobKey)

	strg, err := disk.New(t.TempDir())
	ifErrFailNow(t, err)

	st := newState(t, strg)
	gen := st.RetrieveLatestBlock()

	t.Log("Given the need to refuse peer blocks that would break the stored chain.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a block holds an unsigned transaction.", testID)
		{
			unsigned := database.NewBlock(1, gen.Timestamp, []database.Tx{database.NewTx(bob.id, alice.id, 1_000_000)}, gen.Hash, 0)

			if err := st.ExtendChain(unsigned); !errors.Is(err, database.ErrBlockNotExtending) {
				t.Fatalf("\t%s\tTest %d:\tShould drop the block: %v", failed, testID, err)
			}
			if st.QueryChainLength() != 1 || st.BalanceOf(alice.id) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould leave the chain unchanged.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould drop the block.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a chain repeats a block index.", testID)
		{
			b1 := database.NewBlock(1, gen.Timestamp, nil, gen.Hash, 0)
			b2 := database.NewBlock(1, gen.Timestamp, nil, b1.Hash, 0)
			b3 := database.NewBlock(1, gen.Timestamp, nil, b2.Hash, 0)

			replaced, err := st.ReplaceChain([]database.Block{gen, b1, b2, b3})
			if replaced || !errors.Is(err, state.ErrInvalidChain) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the chain: %v %v", failed, testID, replaced, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the chain.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the node restarts from the same storage.", testID)
		{
			mine(t, st, alice)

			loaded := newState(t, strg)
			if loaded.QueryChainLength() != 2 || !loaded.IsValid() || loaded.BalanceOf(alice.id) != 50 {
				t.Fatalf("\t%s\tTest %d:\tShould load the valid chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould load the valid chain.", success, testID)
		}
	}
}

// failingStorage refuses to replace the stored chain.
type failingStorage struct {
	*memory.Memory
}

func (failingStorage) Replace(blocks []database.BlockData) error {
	return errors.New("disk full")
}

func Test_ReplaceChainStorageFailure(t *testing.T) {
	alice := newAccount(t, aliceKey)

	strg := failingStorage{Memory: memory.New()}
	local := newState(t, strg)
	mine(t, local, alice)

	peer := newState(t, nil)
	for range 3 {
		mine(t, peer, alice)
	}

	t.Log("Given the need to keep the ledger intact when storage fails.")
	{
		replaced, err := local.ReplaceChain(peer.RetrieveChain())
		if replaced || err == nil {
			t.Fatalf("\t%s\tShould report the storage failure: %v %v", failed, replaced, err)
		}
		t.Logf("\t%s\tShould report the storage failure.", success)

		if local.QueryChainLength() != 2 || !local.IsValid() {
			t.Fatalf("\t%s\tShould keep the local chain: %d", failed, local.QueryChainLength())
		}

		loaded := newState(t, strg)
		if loaded.RetrieveLatestBlock().Hash != local.RetrieveLatestBlock().Hash {
			t.Fatalf("\t%s\tShould keep the stored chain.", failed)
		}
		t.Logf("\t%s\tShould keep the local and stored chain.", success)
	}
}
