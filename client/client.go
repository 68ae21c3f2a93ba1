// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/rpc/v2/json2"

	"github.com/ava-labs/chainconsole/service"
)

// Client defines console service operations.
type Client interface {
	// NewSession starts a session and returns its id
	NewSession(ctx context.Context, seed uint64) (string, error)

	// Execute runs one line in a session
	Execute(ctx context.Context, sessionID, line string) (*service.ExecuteReply, error)

	// GetState summarizes the chain state of a session
	GetState(ctx context.Context, sessionID string) (*service.GetStateReply, error)

	// ReadFile fetches a file from the session's tree
	ReadFile(ctx context.Context, sessionID, path string) (string, error)

	// DeleteSession removes a session
	DeleteSession(ctx context.Context, sessionID string) error
}

// New creates a new client object for the service at [uri].
func New(uri string) Client {
	return &client{uri: uri, http: http.DefaultClient}
}

type client struct {
	uri  string
	http *http.Client
}

func (cli *client) sendRequest(ctx context.Context, method string, params, reply interface{}) error {
	body, err := json2.EncodeClientRequest(service.Name+"."+method, params)
	if err != nil {
		return fmt.Errorf("couldn't encode %s request: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cli.uri, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := cli.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()
	if err := json2.DecodeClientResponse(resp.Body, reply); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s request failed with status %s: %w", method, resp.Status, err)
		}
		return err
	}
	return nil
}

func (cli *client) NewSession(ctx context.Context, seed uint64) (string, error) {
	resp := new(service.NewSessionReply)
	err := cli.sendRequest(ctx,
		"newSession",
		&service.NewSessionArgs{Seed: seed},
		resp,
	)
	if err != nil {
		return "", err
	}
	return resp.SessionID, nil
}

func (cli *client) Execute(ctx context.Context, sessionID, line string) (*service.ExecuteReply, error) {
	resp := new(service.ExecuteReply)
	err := cli.sendRequest(ctx,
		"execute",
		&service.ExecuteArgs{SessionID: sessionID, Line: line},
		resp,
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (cli *client) GetState(ctx context.Context, sessionID string) (*service.GetStateReply, error) {
	resp := new(service.GetStateReply)
	err := cli.sendRequest(ctx,
		"getState",
		&service.SessionArgs{SessionID: sessionID},
		resp,
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (cli *client) ReadFile(ctx context.Context, sessionID, path string) (string, error) {
	resp := new(service.ReadFileReply)
	err := cli.sendRequest(ctx,
		"readFile",
		&service.ReadFileArgs{SessionID: sessionID, Path: path},
		resp,
	)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (cli *client) DeleteSession(ctx context.Context, sessionID string) error {
	return cli.sendRequest(ctx,
		"deleteSession",
		&service.SessionArgs{SessionID: sessionID},
		new(service.DeleteSessionReply),
	)
}
