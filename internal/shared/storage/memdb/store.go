// Package memdb is an in-memory relational stand-in used when no database is
// configured and in tests. A single mutex serializes transactions, which gives
// the same outcome as row locks for every workflow path.
package memdb

import (
	"context"
	"sync"
	"time"

	"recruit-backend/internal/domain"
)

// MemberKey identifies a company membership.
type MemberKey struct {
	CompanyID string
	UserID    string
}

// Tables is the full data set. Values are stored by value; callers replace
// entries instead of mutating nested pointers or maps.
type Tables struct {
	Companies    map[string]domain.Company
	Users        map[string]domain.User
	Members      map[MemberKey]domain.Member
	Jobs         map[string]domain.Job
	Approvals    map[string]domain.JobApproval
	Applications map[string]domain.Application
	Interviews   map[string]domain.Interview
	Scorecards   map[string]domain.Scorecard
	Offers       map[string]domain.Offer
}

func newTables() *Tables {
	return &Tables{
		Companies:    make(map[string]domain.Company),
		Users:        make(map[string]domain.User),
		Members:      make(map[MemberKey]domain.Member),
		Jobs:         make(map[string]domain.Job),
		Approvals:    make(map[string]domain.JobApproval),
		Applications: make(map[string]domain.Application),
		Interviews:   make(map[string]domain.Interview),
		Scorecards:   make(map[string]domain.Scorecard),
		Offers:       make(map[string]domain.Offer),
	}
}

func (t *Tables) clone() *Tables {
	return &Tables{
		Companies:    copyMap(t.Companies),
		Users:        copyMap(t.Users),
		Members:      copyMap(t.Members),
		Jobs:         copyMap(t.Jobs),
		Approvals:    copyMap(t.Approvals),
		Applications: copyMap(t.Applications),
		Interviews:   copyMap(t.Interviews),
		Scorecards:   copyMap(t.Scorecards),
		Offers:       copyMap(t.Offers),
	}
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Store holds the tables behind one lock.
type Store struct {
	mu  sync.Mutex
	t   *Tables
	now func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{t: newTables(), now: func() time.Time { return time.Now().UTC() }}
}

// SetClock overrides the store clock. Intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Now returns the store clock, the equivalent of now() in SQL.
func (s *Store) Now() time.Time {
	return s.now()
}

// Read runs fn against the live tables. fn must not modify them.
func (s *Store) Read(ctx context.Context, fn func(t *Tables) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.t)
}

// Tx runs fn against a private copy of the tables and publishes the copy only
// when fn returns nil. A panic inside fn discards the copy.
func (s *Store) Tx(ctx context.Context, fn func(t *Tables) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.t.clone()
	if err := fn(work); err != nil {
		return err
	}
	s.t = work
	return nil
}
