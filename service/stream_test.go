// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialStream(t *testing.T, url string) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, line string) StreamReply {
	require.NoError(t, conn.WriteJSON(StreamRequest{Line: line}))
	reply := StreamReply{}
	require.NoError(t, conn.ReadJSON(&reply))
	return reply
}

func TestStreamNewSession(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	svc := newTestService(t)
	server := httptest.NewServer(NewStreamHandler(svc))
	defer server.Close()

	conn := dialStream(t, "ws"+strings.TrimPrefix(server.URL, "http"))
	reply := send(t, conn, "solana-keygen new -s")
	require.NotNil(reply.Result)
	assert.Equal(0, reply.Result.ExitCode)
	assert.NotEmpty(reply.SessionID)

	reply = send(t, conn, "solana airdrop 1")
	require.NotNil(reply.Result)
	assert.Equal(0, reply.Result.ExitCode, reply.Result.Stderr)

	reply = send(t, conn, "nonsense")
	require.NotNil(reply.Result)
	assert.Equal(1, reply.Result.ExitCode)
	assert.Empty(reply.Error)

	// the stream writes through to the same store the RPC methods read
	assert.Equal("1 SOL", execute(t, svc, reply.SessionID, "solana balance").Stdout)
}

func TestStreamAttach(t *testing.T) {
	svc := newTestService(t)
	id := newSession(t, svc)
	execute(t, svc, id, "mkdir notes")

	server := httptest.NewServer(NewStreamHandler(svc))
	defer server.Close()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?sessionID="

	conn := dialStream(t, url+id)
	reply := send(t, conn, "cd notes")
	require.NotNil(t, reply.Result)
	assert.Equal(t, id, reply.SessionID)
	assert.Equal(t, "/home/user/project/notes", reply.Result.CurrentDir)

	_, resp, err := websocket.DefaultDialer.Dial(url+"missing", nil)
	assert.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
