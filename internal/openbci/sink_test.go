package openbci

import "testing"

func TestFanOutForwardsInOrder(t *testing.T) {
	a := &collector[int64]{}
	b := &collector[int64]{}
	sink := FanOut[int64](a, b)

	sink.Send([]int64{1, 2}, 1)
	sink.Send([]int64{3, 4}, 2)

	for name, c := range map[string]*collector[int64]{"first": a, "second": b} {
		if len(c.rows) != 2 {
			t.Fatalf("%s sink got %d rows, want 2", name, len(c.rows))
		}
		if c.indices[0] != 1 || c.indices[1] != 2 {
			t.Errorf("%s sink indices = %v, want [1 2]", name, c.indices)
		}
	}
}

func TestOutputsNormalizeNilSinks(t *testing.T) {
	out := Outputs{}.normalize()

	// Must not panic.
	out.Chan.Send([]int64{1}, 1)
	out.Aux.Send([]int16{1}, 1)
}
