// Package verification tracks whether the user has recently proven control of
// a membership record (email + chapter + class year lookup) during signup.
// The proof is only honoured for a fixed window; expiry is evaluated lazily on
// read, there is no background timer.
package verification

import (
	"sync"
	"time"
)

const validityWindow = 15 * time.Minute

// Tracker records the outcome and timestamp of the latest membership
// verification.
type Tracker struct {
	mu         sync.Mutex
	verified   bool
	verifiedAt time.Time
	email      string
	nowTime    func() time.Time // nowTime function (injectable for testing)
}

// TrackerOption defines a function type to modify the Tracker instance.
type TrackerOption func(*Tracker)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) TrackerOption {
	return func(t *Tracker) {
		t.nowTime = nowFunc
	}
}

// NewTracker initializes an empty Tracker. Optional configuration can be
// provided via options (e.g., WithNowTime for testing).
func NewTracker(options ...TrackerOption) *Tracker {
	tracker := &Tracker{
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(tracker)
	}
	return tracker
}

// MarkVerified records a successful membership verification for email,
// superseding any previous record.
func (t *Tracker) MarkVerified(email string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.verified = true
	t.verifiedAt = t.nowTime()
	t.email = email
}

// Clear resets the tracker to its unverified state.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.verified = false
	t.verifiedAt = time.Time{}
	t.email = ""
}

// Valid reports whether a verification exists and is still inside the
// validity window. It is a pure function of the recorded fields and the
// current time: a tracker held open past the window flips to invalid without
// any event firing.
func (t *Tracker) Valid() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.verified || t.verifiedAt.IsZero() {
		return false
	}
	return t.nowTime().Sub(t.verifiedAt) < validityWindow
}

// Email returns the email address of the latest verification, or the empty
// string when none is recorded.
func (t *Tracker) Email() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.email
}
