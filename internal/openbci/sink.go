package openbci

// Sink receives decoded rows in emission order. The index is strictly
// increasing and gap-free; the row is freshly allocated per frame so the
// sink may retain it.
type Sink[T any] interface {
	Send(row []T, index uint64)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc[T any] func(row []T, index uint64)

func (f SinkFunc[T]) Send(row []T, index uint64) { f(row, index) }

// FanOut returns a sink that forwards every row to all of the given sinks in
// order.
func FanOut[T any](sinks ...Sink[T]) Sink[T] {
	return SinkFunc[T](func(row []T, index uint64) {
		for _, s := range sinks {
			s.Send(row, index)
		}
	})
}

// Outputs bundles the two per-board output streams. Both receive exactly one
// row per frame cycle, tagged with the same sample index, so a consumer
// never observes one stream without the other.
type Outputs struct {
	Chan Sink[int64]
	Aux  Sink[int16]
}

// normalize replaces nil sinks with no-ops so the acquisition loop never has
// to check.
func (o Outputs) normalize() Outputs {
	if o.Chan == nil {
		o.Chan = SinkFunc[int64](func([]int64, uint64) {})
	}
	if o.Aux == nil {
		o.Aux = SinkFunc[int16](func([]int16, uint64) {})
	}
	return o
}
