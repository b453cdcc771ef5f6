package events_test

import (
	"testing"

	"github.com/ardanlabs/powledger/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Events(t *testing.T) {
	t.Log("Given the need to forward viewer events to subscribers.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen two subscribers are registered.", testID)
		{
			evts := events.New("viewer:")

			ch1 := evts.Acquire("1")
			ch2 := evts.Acquire("2")

			if evts.Len() != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould have two subscribers, got %d.", failed, testID, evts.Len())
			}
			t.Logf("\t%s\tTest %d:\tShould have two subscribers.", success, testID)

			if evts.Send("state: Load: started") {
				t.Fatalf("\t%s\tTest %d:\tShould not forward events without the prefix.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not forward events without the prefix.", success, testID)

			if !evts.Send("viewer: block: mined: blk[1]") {
				t.Fatalf("\t%s\tTest %d:\tShould forward events with the prefix.", failed, testID)
			}

			for _, ch := range []chan string{ch1, ch2} {
				if msg := <-ch; msg != "block: mined: blk[1]" {
					t.Fatalf("\t%s\tTest %d:\tShould strip the prefix, got %q.", failed, testID, msg)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould deliver the event to every subscriber without the prefix.", success, testID)

			if err := evts.Release("1"); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to release a subscriber: %v", failed, testID, err)
			}
			if _, open := <-ch1; open {
				t.Fatalf("\t%s\tTest %d:\tShould close the released channel.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould close the released channel.", success, testID)

			if err := evts.Release("1"); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould fail to release an unknown subscriber.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould fail to release an unknown subscriber.", success, testID)

			evts.Shutdown()
			if _, open := <-ch2; open || evts.Len() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould close every channel on shutdown.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould close every channel on shutdown.", success, testID)
		}
	}
}
