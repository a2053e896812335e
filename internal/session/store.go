package session

import (
	"time"

	"netusage/internal/cache"
	"netusage/internal/log"
)

// Store keeps live sessions by id. Sessions idle longer than the TTL are
// dropped, and the least recently used one goes when the store is full.
type Store struct {
	entries *cache.LRUCache[*Session]
	logger  *log.Logger
}

// NewStore builds a store. A nil logger discards eviction logs.
func NewStore(ttl time.Duration, maxEntries int, logger *log.Logger, opts ...cache.Option[*Session]) *Store {
	if logger == nil {
		logger = log.Discard()
	}
	s := &Store{logger: logger.WithComponent(log.ComponentSession)}
	opts = append([]cache.Option[*Session]{cache.WithEvictHook(s.evicted)}, opts...)
	s.entries = cache.NewLRUCache[*Session](maxEntries, ttl, opts...)
	return s
}

func (s *Store) evicted(id string, sess *Session) {
	s.logger.Debug("Session evicted", log.FieldSessionID, id, log.FieldSource, sess.Source)
}

// Put stores sess under its id.
func (s *Store) Put(sess *Session) {
	s.entries.Set(sess.ID, sess)
}

// Get returns the live session for id and extends its lifetime.
func (s *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	return s.entries.Get(id)
}

// Delete drops the session for id, if any.
func (s *Store) Delete(id string) {
	s.entries.Delete(id)
}

// Len is the number of stored sessions, including ones not yet swept.
func (s *Store) Len() int {
	return s.entries.Size()
}

// Cleaner exposes the store for periodic sweeps by a cache.Manager.
func (s *Store) Cleaner() cache.Cleaner {
	return s.entries
}
