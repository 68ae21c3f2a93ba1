// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tools

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/holiman/uint256"

	"github.com/ava-labs/chainconsole/chain"
)

const (
	splTokenVersion = "3.4.0"

	// TokenProgramID owns every simulated mint and token account.
	TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

	defaultTokenDecimals = 9
)

// SPLToken simulates the fungible token tool.
func SPLToken(_ string, args []string, env Env) Result {
	if len(args) == 0 {
		return Failure("error: a subcommand is required: create-token, create-account, mint, transfer, balance, supply, accounts")
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "--version", "-V":
		return Success("spl-token-cli " + splTokenVersion)
	case "create-token":
		return splCreateToken(rest, env)
	case "create-account":
		return splCreateAccount(rest, env)
	case "mint":
		return splMint(rest, env)
	case "transfer":
		return splTransfer(rest, env)
	case "balance":
		return splBalance(rest, env)
	case "supply":
		return splSupply(rest, env)
	case "accounts":
		return splAccounts(rest, env)
	default:
		return Failure("error: unrecognized subcommand '%s'", sub)
	}
}

// knownMint validates [arg] and looks it up.
func knownMint(arg string, env Env) (chain.Token, *Result) {
	if !chain.IsAddress(arg) {
		r := Failure("error: invalid value '%s' for '<TOKEN_MINT_ADDRESS>': Invalid pubkey", arg)
		return chain.Token{}, &r
	}
	token, ok := env.State.Token(arg)
	if !ok {
		r := Failure("Error: Mint %s not found", arg)
		return chain.Token{}, &r
	}
	return token, nil
}

func parseTokenAmount(arg string, token chain.Token) (*uint256.Int, *Result) {
	amount, err := chain.ParseUnits(arg, token.Decimals)
	if err != nil {
		r := Failure("error: invalid value '%s' for '<TOKEN_AMOUNT>': %s", arg, err)
		return nil, &r
	}
	if amount.IsZero() {
		r := Failure("error: invalid value '%s' for '<TOKEN_AMOUNT>': amount must be greater than zero", arg)
		return nil, &r
	}
	return amount, nil
}

func splCreateToken(args []string, env Env) Result {
	p, err := parseFlags(args, valueFlag("--decimals"))
	if err != nil {
		return Failure("%s", err)
	}
	decimals := uint8(defaultTokenDecimals)
	if v, ok := p.get("--decimals"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > chain.MaxTokenDecimals {
			return Failure("error: invalid value '%s' for '--decimals <DECIMALS>': decimals must be between 0 and %d", v, chain.MaxTokenDecimals)
		}
		decimals = uint8(n)
	}
	authority, ok := env.State.Default()
	if !ok {
		return noSignerFailure(env.State)
	}

	keys := env.Keys()
	mint := keys.Pubkey()
	sig := keys.Signature()
	out := fmt.Sprintf("Creating token %s under program %s\n\nAddress:  %s\nDecimals:  %d\n\nSignature: %s",
		mint, TokenProgramID, mint, decimals, sig)
	return Success(out,
		CreateToken{Mint: mint, Decimals: decimals, Authority: authority.Pubkey},
		RecordTx{Signature: sig, Description: "create token " + mint},
	)
}

func splCreateAccount(args []string, env Env) Result {
	p, err := parseFlags(args)
	if err != nil {
		return Failure("%s", err)
	}
	mintArg, ok := p.arg(0)
	if !ok {
		return Failure("error: the following required arguments were not provided: <TOKEN_MINT_ADDRESS>")
	}
	token, fail := knownMint(mintArg, env)
	if fail != nil {
		return *fail
	}
	owner, ok := env.State.Default()
	if !ok {
		return noSignerFailure(env.State)
	}
	address := chain.AssociatedTokenAddress(owner.Pubkey, token.Mint)
	if _, exists := env.State.TokenAccount(address); exists {
		return Failure("Error: Account %s already exists", address)
	}

	sig := env.Keys().Signature()
	return Success(fmt.Sprintf("Creating account %s\n\nSignature: %s", address, sig),
		CreateTokenAccount{Address: address, Owner: owner.Pubkey, Mint: token.Mint},
		RecordTx{Signature: sig, Description: fmt.Sprintf("create token account %s for mint %s", address, token.Mint)},
	)
}

// recipientAccount resolves [arg], either a token account or a wallet, to
// the token account of [mint] that should receive tokens. The returned
// address is the wallet's associated account when none exists yet.
func recipientAccount(arg string, mint string, env Env) (address string, exists bool, fail *Result) {
	if !chain.IsAddress(arg) {
		r := Failure("error: invalid value '%s' for '<RECIPIENT_ADDRESS>': Invalid pubkey", arg)
		return "", false, &r
	}
	if acct, ok := env.State.TokenAccount(arg); ok {
		if acct.Mint != mint {
			r := Failure("Error: Account %s belongs to mint %s, not %s", arg, acct.Mint, mint)
			return "", false, &r
		}
		return arg, true, nil
	}
	if acct, ok := env.State.AccountFor(arg, mint); ok {
		return acct.Address, true, nil
	}
	return chain.AssociatedTokenAddress(arg, mint), false, nil
}

func splMint(args []string, env Env) Result {
	p, err := parseFlags(args)
	if err != nil {
		return Failure("%s", err)
	}
	if len(p.positional) < 2 {
		return Failure("error: the following required arguments were not provided: <TOKEN_MINT_ADDRESS> <TOKEN_AMOUNT>")
	}
	token, fail := knownMint(p.positional[0], env)
	if fail != nil {
		return *fail
	}
	amount, fail := parseTokenAmount(p.positional[1], token)
	if fail != nil {
		return *fail
	}
	authority, ok := env.State.Default()
	if !ok {
		return noSignerFailure(env.State)
	}
	if token.Authority != authority.Pubkey {
		return Failure("Error: the default signer %s is not the mint authority of %s", authority.Pubkey, token.Mint)
	}
	supply, overflow := new(uint256.Int).AddOverflow(chain.Units(token.Supply), amount)
	if overflow || supply.Gt(chain.MaxTokenAmount) {
		return Failure("Error: minting %s would overflow the supply of %s", chain.FormatUnits(amount, token.Decimals), token.Mint)
	}

	var account string
	if recipientArg, ok := p.arg(2); ok {
		address, exists, fail := recipientAccount(recipientArg, token.Mint, env)
		if fail != nil {
			return *fail
		}
		if exists {
			account = address
		}
	} else if acct, ok := env.State.AccountFor(authority.Pubkey, token.Mint); ok {
		account = acct.Address
	}

	sig := env.Keys().Signature()
	var out strings.Builder
	fmt.Fprintf(&out, "Minting %s tokens\n  Token: %s\n", chain.FormatUnits(amount, token.Decimals), token.Mint)
	if account != "" {
		fmt.Fprintf(&out, "  Recipient: %s\n", account)
	}
	fmt.Fprintf(&out, "\nSignature: %s", sig)
	return Success(out.String(),
		MintTokens{Mint: token.Mint, Account: account, Amount: amount},
		RecordTx{Signature: sig, Description: fmt.Sprintf("mint %s of %s", chain.FormatUnits(amount, token.Decimals), token.Mint)},
	)
}

func splTransfer(args []string, env Env) Result {
	p, err := parseFlags(args, boolFlag("--fund-recipient"))
	if err != nil {
		return Failure("%s", err)
	}
	if len(p.positional) < 3 {
		return Failure("error: the following required arguments were not provided: <TOKEN_MINT_ADDRESS> <TOKEN_AMOUNT> <RECIPIENT_ADDRESS>")
	}
	token, fail := knownMint(p.positional[0], env)
	if fail != nil {
		return *fail
	}
	amount, fail := parseTokenAmount(p.positional[1], token)
	if fail != nil {
		return *fail
	}
	owner, ok := env.State.Default()
	if !ok {
		return noSignerFailure(env.State)
	}
	src, _ := env.State.AccountFor(owner.Pubkey, token.Mint)
	if balance := chain.Units(src.Balance); balance.Lt(amount) {
		return Failure("Error: insufficient funds: %s of %s is available, %s was requested",
			chain.FormatUnits(balance, token.Decimals), token.Mint, chain.FormatUnits(amount, token.Decimals))
	}
	dst, exists, fail := recipientAccount(p.positional[2], token.Mint, env)
	if fail != nil {
		return *fail
	}

	var effects []Effect
	if !exists {
		if !p.has("--fund-recipient") {
			return Failure("Error: the recipient has no account for %s; add `--fund-recipient` to create it", token.Mint)
		}
		effects = append(effects, CreateTokenAccount{Address: dst, Owner: p.positional[2], Mint: token.Mint})
	}

	sig := env.Keys().Signature()
	effects = append(effects,
		TransferTokens{From: src.Address, To: dst, Amount: amount},
		RecordTx{Signature: sig, Description: fmt.Sprintf("transfer %s of %s to %s", chain.FormatUnits(amount, token.Decimals), token.Mint, dst)},
	)
	out := fmt.Sprintf("Transfer %s tokens\n  Sender: %s\n  Recipient: %s\n\nSignature: %s",
		chain.FormatUnits(amount, token.Decimals), src.Address, dst, sig)
	return Success(out, effects...)
}

func splBalance(args []string, env Env) Result {
	p, err := parseFlags(args, valueFlag("--owner"))
	if err != nil {
		return Failure("%s", err)
	}
	mintArg, ok := p.arg(0)
	if !ok {
		return Failure("error: the following required arguments were not provided: <TOKEN_MINT_ADDRESS>")
	}
	token, fail := knownMint(mintArg, env)
	if fail != nil {
		return *fail
	}
	ownerArg, _ := p.get("--owner")
	owner, fail := resolveWallet(ownerArg, env)
	if fail != nil {
		return *fail
	}
	acct, ok := env.State.AccountFor(owner, token.Mint)
	if !ok {
		return Failure("Error: no token account for mint %s owned by %s", token.Mint, owner)
	}
	return Success(chain.FormatUnits(acct.Balance, token.Decimals))
}

func splSupply(args []string, env Env) Result {
	p, err := parseFlags(args)
	if err != nil {
		return Failure("%s", err)
	}
	mintArg, ok := p.arg(0)
	if !ok {
		return Failure("error: the following required arguments were not provided: <TOKEN_MINT_ADDRESS>")
	}
	token, fail := knownMint(mintArg, env)
	if fail != nil {
		return *fail
	}
	return Success(chain.FormatUnits(token.Supply, token.Decimals))
}

func splAccounts(args []string, env Env) Result {
	if _, err := parseFlags(args); err != nil {
		return Failure("%s", err)
	}
	owner, ok := env.State.Default()
	if !ok {
		return noSignerFailure(env.State)
	}
	var accounts []chain.TokenAccount
	for _, acct := range env.State.TokenAccounts {
		if acct.Owner == owner.Pubkey {
			accounts = append(accounts, acct)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Mint < accounts[j].Mint })

	var out strings.Builder
	fmt.Fprintf(&out, "%-44s  %s\n%s", "Token", "Balance", strings.Repeat("-", 60))
	for _, acct := range accounts {
		token, _ := env.State.Token(acct.Mint)
		fmt.Fprintf(&out, "\n%-44s  %s", acct.Mint, chain.FormatUnits(acct.Balance, token.Decimals))
	}
	return Success(out.String())
}
