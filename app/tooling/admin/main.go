// This program performs offline administrative tasks against the storage of
// a ledger node. The node should be stopped while it runs.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/powledger/app/tooling/admin/commands"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage"
	"github.com/ardanlabs/powledger/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN", "stderr")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	cfg := struct {
		conf.Version
		Args    conf.Args
		DBPath  string `conf:"default:zblock/ledger/"`
		Storage string `conf:"default:disk,help:disk|bolt"`
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "ledger admin: bals [account] | chain | pending | validate",
		},
	}

	const prefix = "ADMIN"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	strg, err := storage.Open(cfg.Storage, cfg.DBPath)
	if err != nil {
		return err
	}
	defer strg.Close()

	log.Infow("admin", "status", "storage opened", "kind", cfg.Storage, "path", cfg.DBPath)

	return processCommands(cfg.Args, strg, log)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args conf.Args, strg database.Storage, log *zap.SugaredLogger) error {
	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...))
	}

	switch args.Num(0) {
	case "bals":
		if err := commands.Balances(os.Stdout, strg, args.Num(1)); err != nil {
			return fmt.Errorf("getting balances: %w", err)
		}

	case "chain":
		if err := commands.Chain(os.Stdout, strg); err != nil {
			return fmt.Errorf("getting chain: %w", err)
		}

	case "pending":
		if err := commands.Pending(os.Stdout, strg); err != nil {
			return fmt.Errorf("getting pending: %w", err)
		}

	case "validate":
		if err := commands.Validate(os.Stdout, strg, ev); err != nil {
			return fmt.Errorf("validating chain: %w", err)
		}

	default:
		return fmt.Errorf("unknown command %q", args.Num(0))
	}

	return nil
}
