// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"math"
	"strings"
	"time"

	"github.com/holiman/uint256"
	"golang.org/x/exp/maps"
)

// ConfigKey names a field of Config for SetConfig.
type ConfigKey string

const (
	ConfigURL          ConfigKey = "url"
	ConfigWebsocketURL ConfigKey = "websocket_url"
	ConfigKeypair      ConfigKey = "keypair"
	ConfigCommitment   ConfigKey = "commitment"
)

// UnknownAuthority is recorded for programs deployed without a default wallet.
const UnknownAuthority = "unknown"

// WalletUpdate describes an upsert. Nil or empty fields keep what the wallet
// already has.
type WalletUpdate struct {
	Pubkey      string
	Lamports    *uint64
	KeypairPath string
}

// UpsertWallet creates or merges the wallet [u.Pubkey]. The first wallet
// ever created becomes the default wallet; later ones never replace it.
func UpsertWallet(s State, u WalletUpdate) State {
	w, ok := s.Wallets[u.Pubkey]
	if !ok {
		w = Wallet{Pubkey: u.Pubkey}
	}
	if u.Lamports != nil {
		w.Lamports = *u.Lamports
	}
	if u.KeypairPath != "" {
		w.KeypairPath = u.KeypairPath
	}
	s.Wallets = maps.Clone(s.Wallets)
	if s.Wallets == nil {
		s.Wallets = map[string]Wallet{}
	}
	s.Wallets[u.Pubkey] = w
	if s.DefaultWallet == "" {
		s.DefaultWallet = u.Pubkey
	}
	return s
}

// AdjustBalance adds [delta] lamports to [pubkey], creating the wallet with
// a zero balance if needed. The result is clamped to [0, MaxUint64].
func AdjustBalance(s State, pubkey string, delta int64) State {
	w, ok := s.Wallets[pubkey]
	if !ok {
		w = Wallet{Pubkey: pubkey}
	}
	switch {
	case delta >= 0:
		if uint64(delta) > math.MaxUint64-w.Lamports {
			w.Lamports = math.MaxUint64
		} else {
			w.Lamports += uint64(delta)
		}
	default:
		debit := uint64(-(delta + 1)) + 1 // safe for math.MinInt64
		if debit > w.Lamports {
			w.Lamports = 0
		} else {
			w.Lamports -= debit
		}
	}
	s.Wallets = maps.Clone(s.Wallets)
	if s.Wallets == nil {
		s.Wallets = map[string]Wallet{}
	}
	s.Wallets[pubkey] = w
	return s
}

// WebsocketURL computes the websocket endpoint that pairs with [rpcURL].
func WebsocketURL(rpcURL string) string {
	ws := rpcURL
	switch {
	case strings.HasPrefix(ws, "https://"):
		ws = "wss://" + ws[len("https://"):]
	case strings.HasPrefix(ws, "http://"):
		ws = "ws://" + ws[len("http://"):]
	}
	if strings.HasSuffix(ws, ":8899") {
		ws = ws[:len(ws)-len("8899")] + "8900"
	}
	if !strings.HasSuffix(ws, "/") {
		ws += "/"
	}
	return ws
}

// SetConfig overwrites one config field. Setting the URL also recomputes
// the websocket URL. An unrecognized commitment, or an unknown key, leaves
// the state as it is and reports nothing.
func SetConfig(s State, key ConfigKey, value string) State {
	switch key {
	case ConfigURL:
		s.Config.RPCURL = value
		s.Config.WebsocketURL = WebsocketURL(value)
	case ConfigWebsocketURL:
		s.Config.WebsocketURL = value
	case ConfigKeypair:
		s.Config.KeypairPath = value
	case ConfigCommitment:
		if c, ok := ParseCommitment(value); ok {
			s.Config.Commitment = c
		}
	}
	return s
}

// RecordTransaction prepends a transaction to the log.
func RecordTransaction(s State, signature, description string, now time.Time) State {
	txs := make([]Transaction, 0, len(s.Transactions)+1)
	txs = append(txs, Transaction{
		Signature:   signature,
		Description: description,
		Timestamp:   now,
	})
	s.Transactions = append(txs, s.Transactions...)
	return s
}

// DeployProgram records [programID] as deployed by the default wallet.
func DeployProgram(s State, programID, name string, now time.Time) State {
	authority := s.DefaultWallet
	if authority == "" {
		authority = UnknownAuthority
	}
	s.Programs = maps.Clone(s.Programs)
	if s.Programs == nil {
		s.Programs = map[string]Program{}
	}
	s.Programs[programID] = Program{
		ProgramID:  programID,
		Name:       name,
		DeployedAt: now,
		Authority:  authority,
	}
	return s
}

// SetCurrentDir replaces the working directory.
func SetCurrentDir(s State, dir string) State {
	s.CurrentDir = dir
	return s
}

// SetBuildStatus records the outcome of the last build.
func SetBuildStatus(s State, succeeded bool) State {
	s.LastBuildSucceeded = succeeded
	return s
}

// CreateToken adds a mint with zero supply. Decimals above the maximum
// leave the state unchanged.
func CreateToken(s State, mint string, decimals uint8, authority string) State {
	if decimals > MaxTokenDecimals {
		return s
	}
	s.Tokens = maps.Clone(s.Tokens)
	if s.Tokens == nil {
		s.Tokens = map[string]Token{}
	}
	s.Tokens[mint] = Token{
		Mint:      mint,
		Decimals:  decimals,
		Supply:    new(uint256.Int),
		Authority: authority,
	}
	return s
}

// CreateTokenAccount adds an empty token account. Accounts are only created
// for known mints, and an existing account is never reset.
func CreateTokenAccount(s State, address, owner, mint string) State {
	if _, ok := s.Tokens[mint]; !ok {
		return s
	}
	if _, ok := s.TokenAccounts[address]; ok {
		return s
	}
	s.TokenAccounts = maps.Clone(s.TokenAccounts)
	if s.TokenAccounts == nil {
		s.TokenAccounts = map[string]TokenAccount{}
	}
	s.TokenAccounts[address] = TokenAccount{
		Address: address,
		Owner:   owner,
		Mint:    mint,
		Balance: new(uint256.Int),
	}
	return s
}

// MintTo raises the supply of [mint] by [amount] and, when [account] is a
// known account of that mint, its balance too. A mint that would exceed
// MaxTokenAmount leaves the state unchanged.
func MintTo(s State, mint, account string, amount *uint256.Int) State {
	token, ok := s.Tokens[mint]
	if !ok {
		return s
	}
	supply, overflow := new(uint256.Int).AddOverflow(Units(token.Supply), amount)
	if overflow || supply.Gt(MaxTokenAmount) {
		return s
	}
	token.Supply = supply
	s.Tokens = maps.Clone(s.Tokens)
	s.Tokens[mint] = token

	if acct, ok := s.TokenAccounts[account]; ok && acct.Mint == mint {
		acct.Balance = new(uint256.Int).Add(Units(acct.Balance), amount)
		s.TokenAccounts = maps.Clone(s.TokenAccounts)
		s.TokenAccounts[account] = acct
	}
	return s
}

// TransferTokens moves [amount] between two accounts of the same mint. A
// transfer the sender cannot cover leaves the state unchanged.
func TransferTokens(s State, from, to string, amount *uint256.Int) State {
	src, ok := s.TokenAccounts[from]
	if !ok {
		return s
	}
	dst, ok := s.TokenAccounts[to]
	if !ok || dst.Mint != src.Mint || Units(src.Balance).Lt(amount) {
		return s
	}
	if from == to {
		return s
	}
	s.TokenAccounts = maps.Clone(s.TokenAccounts)
	src.Balance = new(uint256.Int).Sub(Units(src.Balance), amount)
	dst.Balance = new(uint256.Int).Add(Units(dst.Balance), amount)
	s.TokenAccounts[from] = src
	s.TokenAccounts[to] = dst
	return s
}
