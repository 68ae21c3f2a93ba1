// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package service exposes console sessions over JSON-RPC.
package service

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/rpc/v2"
	log "github.com/inconshreveable/log15"

	cjson "github.com/ava-labs/avalanchego/utils/json"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/chainconsole/chain"
	"github.com/ava-labs/chainconsole/interpreter"
	"github.com/ava-labs/chainconsole/session"
	"github.com/ava-labs/chainconsole/tools"
	"github.com/ava-labs/chainconsole/vfs"
)

// Name is the JSON-RPC service name, so methods are called as
// "console.execute".
const Name = "console"

var (
	errNoSessionID  = errors.New("sessionID is required")
	errFileNotFound = errors.New("file not found")
)

// Service is the API service for console sessions.
type Service struct {
	store *session.Store
	clock func() time.Time

	// locks serializes the read-modify-write cycle of each session.
	locksLock sync.Mutex
	locks     map[string]*sync.Mutex
}

// New returns a service storing sessions in [store].
func New(store *session.Store) *Service {
	return &Service{
		store: store,
		clock: time.Now,
		locks: map[string]*sync.Mutex{},
	}
}

// NewHandler returns an HTTP handler serving [svc] as JSON-RPC 2.0.
func NewHandler(svc *Service) (http.Handler, error) {
	server := rpc.NewServer()
	codec := cjson.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")

	errs := wrappers.Errs{}
	errs.Add(server.RegisterService(svc, Name))
	if errs.Errored() {
		return nil, errs.Err
	}
	return server, nil
}

func (s *Service) lock(id string) func() {
	s.locksLock.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.locksLock.Unlock()

	l.Lock()
	return l.Unlock
}

func (s *Service) forget(id string) {
	s.locksLock.Lock()
	delete(s.locks, id)
	s.locksLock.Unlock()
}

// NewSessionArgs are the arguments to NewSession
type NewSessionArgs struct {
	// Seed, when non-zero, replaces the default seed of the first command
	Seed uint64 `json:"seed"`
}

// NewSessionReply is the reply from NewSession
type NewSessionReply struct {
	SessionID  string `json:"sessionID"`
	CurrentDir string `json:"currentDir"`
}

// NewSession starts a session from the initial console state
func (s *Service) NewSession(_ *http.Request, args *NewSessionArgs, reply *NewSessionReply) error {
	state, root := interpreter.CreateInitialState()
	seed := session.FirstSeed
	if args.Seed != 0 {
		seed = args.Seed
	}
	sess := session.Session{
		ID:       uuid.NewString(),
		State:    state,
		Root:     root,
		NextSeed: seed,
	}
	if err := s.store.Create(sess); err != nil {
		return err
	}
	reply.SessionID = sess.ID
	reply.CurrentDir = state.CurrentDir
	return nil
}

// ExecuteArgs are the arguments to Execute
type ExecuteArgs struct {
	SessionID string `json:"sessionID"`
	Line      string `json:"line"`
}

// ExecuteReply is the reply from Execute
type ExecuteReply struct {
	Stdout     string   `json:"stdout"`
	Stderr     string   `json:"stderr"`
	ExitCode   int      `json:"exitCode"`
	Clear      bool     `json:"clear"`
	CurrentDir string   `json:"currentDir"`
	Effects    []string `json:"effects"`
}

// Execute runs one line in a session and persists the result
func (s *Service) Execute(_ *http.Request, args *ExecuteArgs, reply *ExecuteReply) error {
	if args.SessionID == "" {
		return errNoSessionID
	}
	defer s.lock(args.SessionID)()

	sess, err := s.store.Get(args.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			s.forget(args.SessionID)
		}
		return err
	}
	result, state, root := interpreter.Execute(args.Line, sess.State, sess.Root, interpreter.Options{
		Seed: sess.NextSeed,
		Now:  s.clock(),
	})
	sess.State, sess.Root = state, root
	sess.NextSeed++
	if err := s.store.Put(sess); err != nil {
		return fmt.Errorf("couldn't persist session: %w", err)
	}

	reply.Stdout = result.Stdout
	reply.Stderr = result.Stderr
	reply.ExitCode = result.ExitCode
	reply.Clear = result.Clear
	reply.CurrentDir = state.CurrentDir
	reply.Effects = tools.Kinds(result.Effects)
	return nil
}

// SessionArgs names a session
type SessionArgs struct {
	SessionID string `json:"sessionID"`
}

// GetStateReply is the reply from GetState
type GetStateReply struct {
	Config             chain.Config    `json:"config"`
	DefaultWallet      string          `json:"defaultWallet"`
	Wallets            []chain.Wallet  `json:"wallets"`
	Tokens             []chain.Token   `json:"tokens"`
	Programs           []chain.Program `json:"programs"`
	Transactions       int             `json:"transactions"`
	CurrentDir         string          `json:"currentDir"`
	LastBuildSucceeded bool            `json:"lastBuildSucceeded"`
}

// GetState returns a summary of a session's chain state
func (s *Service) GetState(_ *http.Request, args *SessionArgs, reply *GetStateReply) error {
	if args.SessionID == "" {
		return errNoSessionID
	}
	sess, err := s.store.Get(args.SessionID)
	if err != nil {
		return err
	}
	state := sess.State

	reply.Config = state.Config
	reply.DefaultWallet = state.DefaultWallet
	reply.Wallets = make([]chain.Wallet, 0, len(state.Wallets))
	for _, w := range state.Wallets {
		reply.Wallets = append(reply.Wallets, w)
	}
	sort.Slice(reply.Wallets, func(i, j int) bool { return reply.Wallets[i].Pubkey < reply.Wallets[j].Pubkey })
	reply.Tokens = make([]chain.Token, 0, len(state.Tokens))
	for _, t := range state.Tokens {
		reply.Tokens = append(reply.Tokens, t)
	}
	sort.Slice(reply.Tokens, func(i, j int) bool { return reply.Tokens[i].Mint < reply.Tokens[j].Mint })
	reply.Programs = make([]chain.Program, 0, len(state.Programs))
	for _, p := range state.Programs {
		reply.Programs = append(reply.Programs, p)
	}
	sort.Slice(reply.Programs, func(i, j int) bool { return reply.Programs[i].ProgramID < reply.Programs[j].ProgramID })
	reply.Transactions = len(state.Transactions)
	reply.CurrentDir = state.CurrentDir
	reply.LastBuildSucceeded = state.LastBuildSucceeded
	return nil
}

// ReadFileArgs are the arguments to ReadFile
type ReadFileArgs struct {
	SessionID string `json:"sessionID"`
	Path      string `json:"path"`
}

// ReadFileReply is the reply from ReadFile
type ReadFileReply struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ReadFile returns a file from a session's tree. Relative paths resolve
// against the session's working directory.
func (s *Service) ReadFile(_ *http.Request, args *ReadFileArgs, reply *ReadFileReply) error {
	if args.SessionID == "" {
		return errNoSessionID
	}
	sess, err := s.store.Get(args.SessionID)
	if err != nil {
		return err
	}
	p := vfs.ToVFSPath(vfs.Resolve(sess.State.CurrentDir, args.Path))
	content, ok := vfs.GetFile(sess.Root, p)
	if !ok {
		return fmt.Errorf("%w: %s", errFileNotFound, p)
	}
	reply.Path = p
	reply.Content = content
	return nil
}

// DeleteSessionReply is the reply from DeleteSession
type DeleteSessionReply struct {
	Success bool `json:"success"`
}

// DeleteSession removes a session
func (s *Service) DeleteSession(_ *http.Request, args *SessionArgs, reply *DeleteSessionReply) error {
	if args.SessionID == "" {
		return errNoSessionID
	}
	unlock := s.lock(args.SessionID)
	err := s.store.Delete(args.SessionID)
	unlock()
	s.forget(args.SessionID)
	if err != nil {
		return err
	}
	log.Debug("session closed", "id", args.SessionID)
	reply.Success = true
	return nil
}
