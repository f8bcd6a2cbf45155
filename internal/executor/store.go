package executor

import (
	"sync"
	"time"

	"TradePilot/internal/model"
)

const (
	defaultProposalTTL = 15 * time.Minute
	defaultMaxPending  = 32
)

// ProposalStore holds trade proposals awaiting approval. Each proposal is
// consumed at most once; unapproved proposals age out after the TTL.
type ProposalStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	capacity  int
	proposals map[string]*model.TradeProposal
}

// NewProposalStore creates a store with the given TTL and pending capacity.
// Non-positive arguments fall back to the defaults.
func NewProposalStore(ttl time.Duration, capacity int) *ProposalStore {
	if ttl <= 0 {
		ttl = defaultProposalTTL
	}
	if capacity <= 0 {
		capacity = defaultMaxPending
	}
	return &ProposalStore{
		ttl:       ttl,
		capacity:  capacity,
		proposals: make(map[string]*model.TradeProposal),
	}
}

// Put stores a proposal keyed by its ID. Returns false when the store is at
// capacity; the proposal is then discarded by the caller.
func (s *ProposalStore) Put(p *model.TradeProposal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.proposals) >= s.capacity {
		return false
	}
	s.proposals[p.ID] = p
	return true
}

// Take removes and returns the proposal with the given ID. Returns nil when
// the ID is unknown, already consumed, or the proposal has expired. A second
// Take with the same ID always returns nil.
func (s *ProposalStore) Take(id string) *model.TradeProposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[id]
	if !ok {
		return nil
	}
	delete(s.proposals, id)
	if time.Since(p.CreatedAt) > s.ttl {
		return nil
	}
	return p
}

// Sweep removes all expired proposals and returns them for reporting.
func (s *ProposalStore) Sweep() []*model.TradeProposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []*model.TradeProposal
	for id, p := range s.proposals {
		if time.Since(p.CreatedAt) > s.ttl {
			delete(s.proposals, id)
			expired = append(expired, p)
		}
	}
	return expired
}

// Pending returns the number of proposals currently awaiting approval.
func (s *ProposalStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.proposals)
}
