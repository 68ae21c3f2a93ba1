// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package session persists console sessions between commands.
package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/database/versiondb"
	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/chainconsole/chain"
	"github.com/ava-labs/chainconsole/vfs"
)

const (
	// DefaultCacheSize is the number of decoded sessions kept in memory.
	DefaultCacheSize = 256

	// FirstSeed is the seed handed to the first command of a session.
	FirstSeed uint64 = 1
)

var (
	// It's important to set different prefixes for each separate database objects.
	sessionPrefix = []byte("session")

	ErrNotFound = errors.New("session not found")
	ErrExists   = errors.New("session already exists")
	ErrClosed   = errors.New("session store closed")
	errNoID     = errors.New("session id is empty")
)

// Session is one console: its chain state, its file tree and the seed the
// next command will run with.
type Session struct {
	ID       string      `json:"id"`
	State    chain.State `json:"state"`
	Root     *vfs.Node   `json:"root"`
	NextSeed uint64      `json:"nextSeed"`
}

// Store keeps sessions as JSON records in a versioned, prefixed database
// and caches decoded sessions.
//
// Store is safe for concurrent use, but it does not serialize the
// read-modify-write cycle of a single session; callers do that.
type Store struct {
	baseDB    *versiondb.Database
	sessionDB database.Database
	cache     *lru.Cache[string, Session]
}

// New returns a store over [db] caching at most [cacheSize] sessions.
func New(db database.Database, cacheSize int) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, Session](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("couldn't create session cache: %w", err)
	}
	baseDB := versiondb.New(db)
	return &Store{
		baseDB:    baseDB,
		sessionDB: prefixdb.New(sessionPrefix, baseDB),
		cache:     cache,
	}, nil
}

// Create stores a new session.
func (s *Store) Create(sess Session) error {
	if sess.ID == "" {
		return errNoID
	}
	ok, err := s.Has(sess.ID)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: %s", ErrExists, sess.ID)
	}
	if err := s.Put(sess); err != nil {
		return err
	}
	log.Info("created session", "id", sess.ID)
	return nil
}

// Has reports whether [id] is stored.
func (s *Store) Has(id string) (bool, error) {
	if _, ok := s.cache.Get(id); ok {
		return true, nil
	}
	ok, err := s.sessionDB.Has([]byte(id))
	if err != nil {
		return false, s.wrap(id, err)
	}
	return ok, nil
}

// Get returns the session [id].
func (s *Store) Get(id string) (Session, error) {
	if sess, ok := s.cache.Get(id); ok {
		return sess, nil
	}
	b, err := s.sessionDB.Get([]byte(id))
	if err != nil {
		return Session{}, s.wrap(id, err)
	}
	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return Session{}, fmt.Errorf("couldn't decode session %s: %w", id, err)
	}
	if sess.Root == nil {
		sess.Root = vfs.NewRoot()
	}
	s.cache.Add(id, sess)
	return sess, nil
}

// Put writes [sess] and commits it.
func (s *Store) Put(sess Session) error {
	if sess.ID == "" {
		return errNoID
	}
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("couldn't encode session %s: %w", sess.ID, err)
	}
	if err := s.sessionDB.Put([]byte(sess.ID), b); err != nil {
		return s.wrap(sess.ID, err)
	}
	if err := s.baseDB.Commit(); err != nil {
		s.baseDB.Abort()
		return fmt.Errorf("couldn't commit session %s: %w", sess.ID, err)
	}
	s.cache.Add(sess.ID, sess)
	log.Debug("stored session", "id", sess.ID, "bytes", len(b), "nextSeed", sess.NextSeed)
	return nil
}

// Delete removes [id]. Deleting a missing session reports ErrNotFound.
func (s *Store) Delete(id string) error {
	ok, err := s.Has(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.cache.Remove(id)
	if err := s.sessionDB.Delete([]byte(id)); err != nil {
		return s.wrap(id, err)
	}
	if err := s.baseDB.Commit(); err != nil {
		s.baseDB.Abort()
		return fmt.Errorf("couldn't commit deletion of session %s: %w", id, err)
	}
	log.Info("deleted session", "id", id)
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.cache.Purge()
	return s.baseDB.Close()
}

func (s *Store) wrap(id string, err error) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	case errors.Is(err, database.ErrClosed):
		return ErrClosed
	default:
		return fmt.Errorf("session %s: %w", id, err)
	}
}
