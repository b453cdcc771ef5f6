package genesis_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Load(t *testing.T) {
	t.Log("Given the need to load the genesis information.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen there is no genesis file.", testID)
		{
			gen, err := genesis.Load(filepath.Join(t.TempDir(), "missing.json"))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould fall back to the defaults: %v", failed, testID, err)
			}
			if gen != genesis.Default() {
				t.Fatalf("\t%s\tTest %d:\tShould fall back to the defaults, got %+v.", failed, testID, gen)
			}
			t.Logf("\t%s\tTest %d:\tShould fall back to the defaults.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the genesis file sets the values.", testID)
		{
			path := filepath.Join(t.TempDir(), "genesis.json")
			content := `{"date":"2025-06-01T00:00:00Z","difficulty":0,"mining_reward":25}`
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to write the file: %v", failed, testID, err)
			}

			gen, err := genesis.Load(path)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to load the file: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to load the file.", success, testID)

			if gen.MiningReward != 25 || gen.Date.Year() != 2025 {
				t.Fatalf("\t%s\tTest %d:\tShould use the file values, got %+v.", failed, testID, gen)
			}
			t.Logf("\t%s\tTest %d:\tShould use the file values.", success, testID)

			if gen.Difficulty != genesis.DefaultDifficulty {
				t.Fatalf("\t%s\tTest %d:\tShould default a zero difficulty, got %d.", failed, testID, gen.Difficulty)
			}
			t.Logf("\t%s\tTest %d:\tShould default a zero difficulty.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the genesis file leaves out the reward.", testID)
		{
			path := filepath.Join(t.TempDir(), "genesis.json")
			content := `{"date":"2025-06-01T00:00:00Z","difficulty":3}`
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to write the file: %v", failed, testID, err)
			}

			gen, err := genesis.Load(path)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to load the file: %v", failed, testID, err)
			}

			if gen.MiningReward != genesis.DefaultMiningReward || gen.Difficulty != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould default a missing reward, got %+v.", failed, testID, gen)
			}
			t.Logf("\t%s\tTest %d:\tShould default a missing reward.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the genesis file is corrupt.", testID)
		{
			path := filepath.Join(t.TempDir(), "genesis.json")
			if err := os.WriteFile(path, []byte("{"), 0600); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to write the file: %v", failed, testID, err)
			}

			if _, err := genesis.Load(path); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould fail to load.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould fail to load.", success, testID)
		}
	}
}
