package repair

import "github.com/dshills/codecritic/internal/review"

// Observer receives progress callbacks from the loop. Implementations must
// not block; they run inline between loop stages.
type Observer interface {
	ReviewDone(iteration int, j *review.Judgement)
	FixDone(iteration int, ok bool)
}

// NopObserver ignores all callbacks.
type NopObserver struct{}

func (NopObserver) ReviewDone(int, *review.Judgement) {}
func (NopObserver) FixDone(int, bool)                 {}
