// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package service

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/inconshreveable/log15"
)

const (
	// StreamPath is where [NewStreamHandler] is mounted by the console server.
	StreamPath = "/ws"

	streamReadTimeout = 5 * time.Minute
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// StreamRequest is one line sent over a stream connection.
type StreamRequest struct {
	Line string `json:"line"`
}

// StreamReply answers a [StreamRequest]. Error is set when the line could
// not be run at all, which is distinct from a command exiting non-zero.
type StreamReply struct {
	SessionID string        `json:"sessionID"`
	Result    *ExecuteReply `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// NewStreamHandler serves sessions over websocket connections. A connection
// attaches to the session named by the sessionID query parameter, or to a
// new session when it is absent, and then runs every received line in it.
func NewStreamHandler(svc *Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("sessionID")
		if id == "" {
			reply := NewSessionReply{}
			if err := svc.NewSession(r, &NewSessionArgs{}, &reply); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			id = reply.SessionID
		} else if has, err := svc.store.Has(id); err != nil || !has {
			http.Error(w, "unknown session", http.StatusNotFound)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debug("websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()
		log.Debug("stream attached", "id", id)

		for {
			_ = conn.SetReadDeadline(time.Now().Add(streamReadTimeout))
			var req StreamRequest
			if err := conn.ReadJSON(&req); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn("stream closed unexpectedly", "id", id, "error", err)
				}
				return
			}

			reply := StreamReply{SessionID: id}
			result := ExecuteReply{}
			if err := svc.Execute(r, &ExecuteArgs{SessionID: id, Line: req.Line}, &result); err != nil {
				reply.Error = err.Error()
			} else {
				reply.Result = &result
			}
			if err := conn.WriteJSON(reply); err != nil {
				log.Debug("stream write failed", "id", id, "error", err)
				return
			}
		}
	})
}
