// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tools

import (
	"github.com/holiman/uint256"

	"github.com/ava-labs/chainconsole/chain"
)

// EffectKind names an effect on the wire and in logs.
type EffectKind string

const (
	KindCreateFile         EffectKind = "create_file"
	KindUpdateFile         EffectKind = "update_file"
	KindDeleteFile         EffectKind = "delete_file"
	KindCreateDir          EffectKind = "create_dir"
	KindSetConfig          EffectKind = "set_config"
	KindRecordTx           EffectKind = "record_tx"
	KindDeployProgram      EffectKind = "deploy_program"
	KindUpsertWallet       EffectKind = "upsert_wallet"
	KindAdjustBalance      EffectKind = "adjust_balance"
	KindCreateToken        EffectKind = "create_token"
	KindCreateTokenAccount EffectKind = "create_token_account"
	KindMintTokens         EffectKind = "mint_tokens"
	KindTransferTokens     EffectKind = "transfer_tokens"
)

// Effect is a mutation requested by a handler. The set of effects is closed:
// only the types in this file implement it.
type Effect interface {
	Kind() EffectKind
	effect()
}

var (
	_ Effect = CreateFile{}
	_ Effect = UpdateFile{}
	_ Effect = DeleteFile{}
	_ Effect = CreateDir{}
	_ Effect = SetConfig{}
	_ Effect = RecordTx{}
	_ Effect = DeployProgram{}
	_ Effect = UpsertWallet{}
	_ Effect = AdjustBalance{}
	_ Effect = CreateToken{}
	_ Effect = CreateTokenAccount{}
	_ Effect = MintTokens{}
	_ Effect = TransferTokens{}
)

// CreateFile writes a new file, creating its parent directories.
type CreateFile struct{ Path, Content string }

// UpdateFile replaces the content of a file.
type UpdateFile struct{ Path, Content string }

// DeleteFile removes a file or a directory tree.
type DeleteFile struct{ Path string }

// CreateDir creates a directory and its parents.
type CreateDir struct{ Path string }

// SetConfig changes one field of the CLI config.
type SetConfig struct {
	Key   chain.ConfigKey
	Value string
}

// RecordTx appends to the transaction log.
type RecordTx struct{ Signature, Description string }

// DeployProgram records a deployed program.
type DeployProgram struct{ ProgramID, Name string }

// UpsertWallet creates or merges a wallet.
type UpsertWallet struct {
	Pubkey      string
	KeypairPath string
}

// AdjustBalance credits (positive) or debits (negative) a wallet in lamports.
type AdjustBalance struct {
	Pubkey string
	Delta  int64
}

// CreateToken creates a mint.
type CreateToken struct {
	Mint      string
	Decimals  uint8
	Authority string
}

// CreateTokenAccount creates an empty token account.
type CreateTokenAccount struct{ Address, Owner, Mint string }

// MintTokens raises a mint's supply and credits Account when it is known.
type MintTokens struct {
	Mint    string
	Account string
	Amount  *uint256.Int
}

// TransferTokens moves tokens between two accounts.
type TransferTokens struct {
	From, To string
	Amount   *uint256.Int
}

func (CreateFile) Kind() EffectKind         { return KindCreateFile }
func (UpdateFile) Kind() EffectKind         { return KindUpdateFile }
func (DeleteFile) Kind() EffectKind         { return KindDeleteFile }
func (CreateDir) Kind() EffectKind          { return KindCreateDir }
func (SetConfig) Kind() EffectKind          { return KindSetConfig }
func (RecordTx) Kind() EffectKind           { return KindRecordTx }
func (DeployProgram) Kind() EffectKind      { return KindDeployProgram }
func (UpsertWallet) Kind() EffectKind       { return KindUpsertWallet }
func (AdjustBalance) Kind() EffectKind      { return KindAdjustBalance }
func (CreateToken) Kind() EffectKind        { return KindCreateToken }
func (CreateTokenAccount) Kind() EffectKind { return KindCreateTokenAccount }
func (MintTokens) Kind() EffectKind         { return KindMintTokens }
func (TransferTokens) Kind() EffectKind     { return KindTransferTokens }

func (CreateFile) effect()         {}
func (UpdateFile) effect()         {}
func (DeleteFile) effect()         {}
func (CreateDir) effect()          {}
func (SetConfig) effect()          {}
func (RecordTx) effect()           {}
func (DeployProgram) effect()      {}
func (UpsertWallet) effect()       {}
func (AdjustBalance) effect()      {}
func (CreateToken) effect()        {}
func (CreateTokenAccount) effect() {}
func (MintTokens) effect()         {}
func (TransferTokens) effect()     {}

// ApplyStateEffect folds one of the tool specific effects into [s]. It
// reports false for effects that are not tool specific (files, config,
// transactions and deployments), which the interpreter folds itself.
func ApplyStateEffect(s chain.State, e Effect) (chain.State, bool) {
	switch e := e.(type) {
	case UpsertWallet:
		return chain.UpsertWallet(s, chain.WalletUpdate{
			Pubkey:      e.Pubkey,
			KeypairPath: e.KeypairPath,
		}), true
	case AdjustBalance:
		return chain.AdjustBalance(s, e.Pubkey, e.Delta), true
	case CreateToken:
		return chain.CreateToken(s, e.Mint, e.Decimals, e.Authority), true
	case CreateTokenAccount:
		return chain.CreateTokenAccount(s, e.Address, e.Owner, e.Mint), true
	case MintTokens:
		return chain.MintTo(s, e.Mint, e.Account, e.Amount), true
	case TransferTokens:
		return chain.TransferTokens(s, e.From, e.To, e.Amount), true
	default:
		return s, false
	}
}

// Kinds lists the kinds of [effects] in order.
func Kinds(effects []Effect) []string {
	kinds := make([]string, len(effects))
	for i, e := range effects {
		kinds[i] = string(e.Kind())
	}
	return kinds
}
