// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/chainconsole/session"
	"github.com/ava-labs/chainconsole/vfs"
)

func newTestService(t *testing.T) *Service {
	store, err := session.New(memdb.New(), 16)
	require.NoError(t, err)
	svc := New(store)
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return clock }
	return svc
}

func newSession(t *testing.T, svc *Service) string {
	reply := NewSessionReply{}
	require.NoError(t, svc.NewSession(nil, &NewSessionArgs{}, &reply))
	require.NotEmpty(t, reply.SessionID)
	assert.Equal(t, vfs.ProjectRoot, reply.CurrentDir)
	return reply.SessionID
}

func execute(t *testing.T, svc *Service, id, line string) ExecuteReply {
	reply := ExecuteReply{}
	require.NoError(t, svc.Execute(nil, &ExecuteArgs{SessionID: id, Line: line}, &reply))
	return reply
}

func TestExecutePersists(t *testing.T) {
	assert := assert.New(t)

	svc := newTestService(t)
	id := newSession(t, svc)

	reply := execute(t, svc, id, "solana-keygen new")
	assert.Equal(0, reply.ExitCode, reply.Stderr)
	assert.Equal([]string{"create_file", "upsert_wallet"}, reply.Effects)

	reply = execute(t, svc, id, "solana airdrop 2")
	assert.Equal(0, reply.ExitCode, reply.Stderr)
	assert.Equal("2 SOL", execute(t, svc, id, "solana balance").Stdout)

	reply = execute(t, svc, id, "mkdir notes")
	assert.Equal(0, reply.ExitCode)
	reply = execute(t, svc, id, "cd notes")
	assert.Equal(vfs.ProjectRoot+"/notes", reply.CurrentDir)

	state := GetStateReply{}
	assert.NoError(svc.GetState(nil, &SessionArgs{SessionID: id}, &state))
	assert.Len(state.Wallets, 1)
	assert.Equal(state.Wallets[0].Pubkey, state.DefaultWallet)
	assert.Equal(1, state.Transactions)
	assert.Equal(vfs.ProjectRoot+"/notes", state.CurrentDir)
}

func TestSeedsAdvancePerCommand(t *testing.T) {
	assert := assert.New(t)

	svc := newTestService(t)
	a, b := newSession(t, svc), newSession(t, svc)

	// the same history gives the same keys in every session
	execute(t, svc, a, "solana-keygen new -o one.json -s")
	execute(t, svc, b, "solana-keygen new -o one.json -s")
	first := execute(t, svc, a, "solana-keygen pubkey one.json").Stdout
	assert.Equal(first, execute(t, svc, b, "solana-keygen pubkey one.json").Stdout)

	// and every command in a session draws from a fresh seed
	execute(t, svc, a, "solana-keygen new -o two.json -s")
	assert.NotEqual(first, execute(t, svc, a, "solana-keygen pubkey two.json").Stdout)
}

func TestReadFile(t *testing.T) {
	assert := assert.New(t)

	svc := newTestService(t)
	id := newSession(t, svc)
	execute(t, svc, id, `echo "hello world" > greeting.txt`)

	reply := ReadFileReply{}
	assert.NoError(svc.ReadFile(nil, &ReadFileArgs{SessionID: id, Path: "greeting.txt"}, &reply))
	assert.Equal("hello world\n", reply.Content)
	assert.Equal(vfs.ProjectRoot+"/greeting.txt", reply.Path)

	assert.NoError(svc.ReadFile(nil, &ReadFileArgs{SessionID: id, Path: "/project/README.md"}, &reply))
	assert.Contains(reply.Content, "# Project")

	err := svc.ReadFile(nil, &ReadFileArgs{SessionID: id, Path: "missing"}, &reply)
	assert.ErrorIs(err, errFileNotFound)
}

func TestUnknownSession(t *testing.T) {
	assert := assert.New(t)

	svc := newTestService(t)
	err := svc.Execute(nil, &ExecuteArgs{SessionID: "nope", Line: "pwd"}, &ExecuteReply{})
	assert.ErrorIs(err, session.ErrNotFound)
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("junk-%d", i)
		assert.Error(svc.Execute(nil, &ExecuteArgs{SessionID: id, Line: "pwd"}, &ExecuteReply{}))
	}
	assert.Empty(svc.locks)
	err = svc.Execute(nil, &ExecuteArgs{Line: "pwd"}, &ExecuteReply{})
	assert.ErrorIs(err, errNoSessionID)
}

func TestDeleteSession(t *testing.T) {
	assert := assert.New(t)

	svc := newTestService(t)
	id := newSession(t, svc)
	reply := DeleteSessionReply{}
	assert.NoError(svc.DeleteSession(nil, &SessionArgs{SessionID: id}, &reply))
	assert.True(reply.Success)

	err := svc.GetState(nil, &SessionArgs{SessionID: id}, &GetStateReply{})
	assert.ErrorIs(err, session.ErrNotFound)
	err = svc.DeleteSession(nil, &SessionArgs{SessionID: id}, &reply)
	assert.ErrorIs(err, session.ErrNotFound)
}

func TestConcurrentSessions(t *testing.T) {
	const (
		sessions = 8
		airdrops = 5
	)
	svc := newTestService(t)
	ids := make([]string, sessions)
	for i := range ids {
		ids[i] = newSession(t, svc)
		execute(t, svc, ids[i], "solana-keygen new")
	}

	// commands on one session from many goroutines must not lose updates
	var g errgroup.Group
	for _, id := range ids {
		id := id
		for i := 0; i < airdrops; i++ {
			g.Go(func() error {
				reply := ExecuteReply{}
				if err := svc.Execute(nil, &ExecuteArgs{SessionID: id, Line: "solana airdrop 1"}, &reply); err != nil {
					return err
				}
				if reply.ExitCode != 0 {
					return fmt.Errorf("airdrop failed: %s", reply.Stderr)
				}
				return nil
			})
		}
	}
	require.NoError(t, g.Wait())

	for _, id := range ids {
		state := GetStateReply{}
		require.NoError(t, svc.GetState(nil, &SessionArgs{SessionID: id}, &state))
		assert.Equal(t, airdrops, state.Transactions)
		require.Len(t, state.Wallets, 1)
		assert.Equal(t, uint64(airdrops)*1_000_000_000, state.Wallets[0].Lamports)
	}
}
