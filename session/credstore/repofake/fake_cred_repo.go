package repofake

import (
	"sync"

	"github.com/simhq/go-portal-client/session/credstore"
)

var _ credstore.Repo = (*FakeCredRepo)(nil)

// FakeCredRepo is an in-memory implementation of credstore.Repo for tests.
type FakeCredRepo struct {
	mu    sync.RWMutex
	state credstore.State
	saved bool

	// SaveErr, when set, is returned by Save to simulate persistence failure
	SaveErr error
}

// NewFakeCredRepo creates a new in-memory credential repository
func NewFakeCredRepo() *FakeCredRepo {
	return &FakeCredRepo{}
}

// Load returns the last saved state, or the zero State when nothing has been
// saved yet.
func (r *FakeCredRepo) Load() credstore.State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.state.IsAuthenticated && r.state.User == nil {
		return credstore.State{}
	}
	return r.state
}

// Save stores the state in memory.
func (r *FakeCredRepo) Save(state credstore.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.SaveErr != nil {
		return r.SaveErr
	}
	r.state = state
	r.saved = true
	return nil
}

// Saved reports whether Save has been called at least once.
func (r *FakeCredRepo) Saved() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saved
}
