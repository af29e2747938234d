package algorithms

// intner is the part of *rand.Rand the tie-breaker needs.
type intner interface {
	IntN(n int) int
}

// tieBreaker streams neighbor labels and keeps a uniformly random choice
// among the labels with the highest count seen so far (reservoir sampling of
// size one). A fresh tie-breaker falls back to the vertex's current label when
// it sees nothing.
type tieBreaker struct {
	label uint64
	count int
	ties  int
}

// offer records that label has now been seen count times.
func (t *tieBreaker) offer(label uint64, count int, rng intner) {
	switch {
	case count > t.count:
		t.label, t.count, t.ties = label, count, 1
	case count == t.count:
		t.ties++
		if rng.IntN(t.ties) == 0 {
			t.label = label
		}
	}
}
