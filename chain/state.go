// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"time"

	"github.com/holiman/uint256"

	"github.com/ava-labs/chainconsole/vfs"
)

// Commitment is the confirmation level the simulated cluster reports at.
type Commitment string

const (
	Processed Commitment = "processed"
	Confirmed Commitment = "confirmed"
	Finalized Commitment = "finalized"
)

// ParseCommitment returns the commitment named [s], if it is one of the
// three recognized levels.
func ParseCommitment(s string) (Commitment, bool) {
	switch c := Commitment(s); c {
	case Processed, Confirmed, Finalized:
		return c, true
	default:
		return "", false
	}
}

const (
	DevnetURL      = "https://api.devnet.solana.com"
	TestnetURL     = "https://api.testnet.solana.com"
	MainnetBetaURL = "https://api.mainnet-beta.solana.com"
	LocalhostURL   = "http://localhost:8899"

	// DefaultKeypairPath is where solana-keygen writes when given no outfile.
	DefaultKeypairPath = vfs.HomeDir + "/.config/solana/id.json"
	// ConfigFilePath is reported by `solana config get`.
	ConfigFilePath = vfs.HomeDir + "/.config/solana/cli/config.yml"
)

// Config is the CLI configuration of the simulated cluster.
type Config struct {
	RPCURL       string     `json:"rpcURL"`
	WebsocketURL string     `json:"websocketURL"`
	KeypairPath  string     `json:"keypairPath"`
	Commitment   Commitment `json:"commitment"`
}

// Wallet is a system account. Balances are held in lamports.
type Wallet struct {
	Pubkey      string `json:"pubkey"`
	Lamports    uint64 `json:"lamports"`
	KeypairPath string `json:"keypairPath,omitempty"`
}

// Token is a fungible token mint. Supply is held in base units.
type Token struct {
	Mint      string       `json:"mint"`
	Decimals  uint8        `json:"decimals"`
	Supply    *uint256.Int `json:"supply"`
	Authority string       `json:"authority"`
}

// TokenAccount holds the balance of one owner for one mint.
type TokenAccount struct {
	Address string       `json:"address"`
	Owner   string       `json:"owner"`
	Mint    string       `json:"mint"`
	Balance *uint256.Int `json:"balance"`
}

// Program is a deployed on-chain program.
type Program struct {
	ProgramID  string    `json:"programID"`
	Name       string    `json:"name,omitempty"`
	DeployedAt time.Time `json:"deployedAt"`
	Authority  string    `json:"authority"`
}

// Transaction is one entry of the transaction log.
type Transaction struct {
	Signature   string    `json:"signature"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// State is a snapshot of the simulated chain and session.
//
// State is a value: the updaters in this package never modify the maps or
// slices of the State they are given, they return a new State that shares
// everything it did not change. Callers must not write to the maps either.
type State struct {
	Config        Config                  `json:"config"`
	Wallets       map[string]Wallet       `json:"wallets"`
	DefaultWallet string                  `json:"defaultWallet,omitempty"`
	Tokens        map[string]Token        `json:"tokens"`
	TokenAccounts map[string]TokenAccount `json:"tokenAccounts"`
	Programs      map[string]Program      `json:"programs"`
	// Transactions are ordered newest first.
	Transactions []Transaction `json:"transactions"`

	CurrentDir         string `json:"currentDir"`
	LastBuildSucceeded bool   `json:"lastBuildSucceeded"`
}

// NewState returns the state of a fresh session on devnet.
func NewState() State {
	return State{
		Config: Config{
			RPCURL:       DevnetURL,
			WebsocketURL: WebsocketURL(DevnetURL),
			KeypairPath:  DefaultKeypairPath,
			Commitment:   Confirmed,
		},
		Wallets:       map[string]Wallet{},
		Tokens:        map[string]Token{},
		TokenAccounts: map[string]TokenAccount{},
		Programs:      map[string]Program{},
		Transactions:  []Transaction{},
		CurrentDir:    vfs.ProjectRoot,
	}
}

// Wallet returns the wallet at [pubkey].
func (s State) Wallet(pubkey string) (Wallet, bool) {
	w, ok := s.Wallets[pubkey]
	return w, ok
}

// Default returns the default wallet, if one has been created.
func (s State) Default() (Wallet, bool) {
	if s.DefaultWallet == "" {
		return Wallet{}, false
	}
	return s.Wallet(s.DefaultWallet)
}

// Token returns the mint at [mint].
func (s State) Token(mint string) (Token, bool) {
	t, ok := s.Tokens[mint]
	return t, ok
}

// TokenAccount returns the token account at [address].
func (s State) TokenAccount(address string) (TokenAccount, bool) {
	a, ok := s.TokenAccounts[address]
	return a, ok
}

// AccountFor returns the associated token account of [owner] for [mint].
func (s State) AccountFor(owner, mint string) (TokenAccount, bool) {
	a, ok := s.TokenAccounts[AssociatedTokenAddress(owner, mint)]
	if !ok || a.Mint != mint || a.Owner != owner {
		return TokenAccount{}, false
	}
	return a, true
}

// Transaction returns the recorded transaction with [signature].
func (s State) Transaction(signature string) (Transaction, bool) {
	for _, tx := range s.Transactions {
		if tx.Signature == signature {
			return tx, true
		}
	}
	return Transaction{}, false
}

// Cluster returns the moniker of the configured RPC URL, or the URL itself.
func (c Config) Cluster() string {
	switch c.RPCURL {
	case DevnetURL:
		return "devnet"
	case TestnetURL:
		return "testnet"
	case MainnetBetaURL:
		return "mainnet-beta"
	case LocalhostURL:
		return "localnet"
	default:
		return c.RPCURL
	}
}
