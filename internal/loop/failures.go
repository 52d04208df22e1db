package loop

// FailureBudget tracks consecutive cycle failures for one account. The loop
// runs single-threaded per account, so no locking is needed.
type FailureBudget struct {
	threshold int
	count     int
}

// NewFailureBudget creates a budget that is exhausted after threshold
// consecutive failures.
func NewFailureBudget(threshold int) *FailureBudget {
	return &FailureBudget{threshold: threshold}
}

// Record counts one failed cycle and reports whether the budget is now
// exhausted.
func (b *FailureBudget) Record() bool {
	b.count++
	return b.count >= b.threshold
}

// Reset clears the counter after a clean cycle.
func (b *FailureBudget) Reset() {
	b.count = 0
}

// Count returns the current consecutive-failure count.
func (b *FailureBudget) Count() int {
	return b.count
}

// Exhausted reports whether the budget has been used up.
func (b *FailureBudget) Exhausted() bool {
	return b.count >= b.threshold
}
