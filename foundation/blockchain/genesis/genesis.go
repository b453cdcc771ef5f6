// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// Default values used when no genesis file exists.
const (
	DefaultDifficulty   = 2
	DefaultMiningReward = 50
)

// Genesis represents the genesis file.
type Genesis struct {
	Date         time.Time `json:"date"`          // Timestamp of the genesis block, shared by every node.
	Difficulty   uint      `json:"difficulty"`    // Number of leading hex zeros a block hash needs.
	MiningReward uint64    `json:"mining_reward"` // Amount paid to the miner of a block.
}

// Default returns the genesis values used by a node with no genesis file.
func Default() Genesis {
	return Genesis{
		Date:         time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Difficulty:   DefaultDifficulty,
		MiningReward: DefaultMiningReward,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. If the file does not exist the
// default genesis is returned.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis: %w", err)
	}

	if genesis.Difficulty == 0 {
		genesis.Difficulty = DefaultDifficulty
	}

	if genesis.MiningReward == 0 {
		genesis.MiningReward = DefaultMiningReward
	}

	return genesis, nil
}
