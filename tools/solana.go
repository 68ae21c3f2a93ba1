// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tools

import (
	"fmt"
	"strings"

	"github.com/ava-labs/chainconsole/chain"
)

const (
	solanaVersion = "1.18.18 (src:83047136; feat:4215500110, client:SolanaLabs)"

	// TransferFeeLamports is charged to the sender of every SOL transfer.
	TransferFeeLamports = 5_000
	// MaxAirdropLamports is the most a single airdrop may request.
	MaxAirdropLamports = 5 * chain.LamportsPerSOL

	systemProgramID    = "11111111111111111111111111111111"
	bpfLoaderProgramID = "BPFLoaderUpgradeab1e11111111111111111111111"
)

func noSignerFailure(s chain.State) Result {
	return Failure(`Error: No default signer found, run "solana-keygen new -o %s" to create a new one`, s.Config.KeypairPath)
}

// Solana simulates the wallet and config tool.
func Solana(_ string, args []string, env Env) Result {
	if len(args) == 0 {
		return Failure("error: a subcommand is required; run `solana help` for usage")
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "--version", "-V":
		return Success("solana-cli " + solanaVersion)
	case "help", "--help", "-h":
		return Success(solanaHelp)
	case "config":
		return solanaConfig(rest, env)
	case "address":
		w, ok := env.State.Default()
		if !ok {
			return noSignerFailure(env.State)
		}
		return Success(w.Pubkey)
	case "airdrop":
		return solanaAirdrop(rest, env)
	case "balance":
		return solanaBalance(rest, env)
	case "transfer":
		return solanaTransfer(rest, env)
	case "account":
		return solanaAccount(rest, env)
	case "program":
		return solanaProgram(rest, env)
	case "confirm":
		return solanaConfirm(rest, env)
	case "transaction-history":
		return solanaHistory(env)
	default:
		return Failure("error: unrecognized subcommand '%s'", sub)
	}
}

func formatConfig(c chain.Config) string {
	return strings.Join([]string{
		"Config File: " + chain.ConfigFilePath,
		"RPC URL: " + c.RPCURL,
		"WebSocket URL: " + c.WebsocketURL + " (computed)",
		"Keypair Path: " + c.KeypairPath,
		"Commitment: " + string(c.Commitment),
	}, "\n")
}

// clusterURL expands the monikers accepted by --url.
func clusterURL(v string) (string, bool) {
	switch v {
	case "devnet", "d":
		return chain.DevnetURL, true
	case "testnet", "t":
		return chain.TestnetURL, true
	case "mainnet-beta", "m":
		return chain.MainnetBetaURL, true
	case "localhost", "l":
		return chain.LocalhostURL, true
	}
	if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
		return strings.TrimSuffix(v, "/"), true
	}
	return "", false
}

func solanaConfig(args []string, env Env) Result {
	if len(args) == 0 {
		return Failure("error: 'solana config' requires a subcommand: get, set")
	}
	switch args[0] {
	case "get":
		return Success(formatConfig(env.State.Config))
	case "set":
	default:
		return Failure("error: unrecognized subcommand '%s'", args[0])
	}

	p, err := parseFlags(args[1:],
		valueFlag("--url", "-u"),
		valueFlag("--keypair", "-k"),
		valueFlag("--commitment"),
		valueFlag("--ws", "--websocket-url"),
	)
	if err != nil {
		return Failure("%s", err)
	}
	if len(p.flags) == 0 {
		return Failure("error: 'solana config set' requires at least one of --url, --keypair, --commitment, --ws")
	}

	var effects []Effect
	if v, ok := p.get("--url"); ok {
		url, ok := clusterURL(v)
		if !ok {
			return Failure("error: invalid value '%s' for '--url <URL_OR_MONIKER>': expected a URL or one of devnet, testnet, mainnet-beta, localhost", v)
		}
		effects = append(effects, SetConfig{Key: chain.ConfigURL, Value: url})
	}
	if v, ok := p.get("--ws"); ok {
		effects = append(effects, SetConfig{Key: chain.ConfigWebsocketURL, Value: v})
	}
	if v, ok := p.get("--keypair"); ok {
		effects = append(effects, SetConfig{Key: chain.ConfigKeypair, Value: env.Path(v)})
	}
	if v, ok := p.get("--commitment"); ok {
		// unknown levels are passed through and ignored when applied
		effects = append(effects, SetConfig{Key: chain.ConfigCommitment, Value: v})
	}

	preview := env.State
	for _, e := range effects {
		c := e.(SetConfig)
		preview = chain.SetConfig(preview, c.Key, c.Value)
	}
	return Success(formatConfig(preview.Config), effects...)
}

// resolveWallet returns the address named by [arg], or the default wallet
// when [arg] is empty.
func resolveWallet(arg string, env Env) (string, *Result) {
	if arg == "" {
		w, ok := env.State.Default()
		if !ok {
			r := noSignerFailure(env.State)
			return "", &r
		}
		return w.Pubkey, nil
	}
	if !chain.IsAddress(arg) {
		r := Failure("error: invalid value '%s': Invalid pubkey", arg)
		return "", &r
	}
	return arg, nil
}

func solanaAirdrop(args []string, env Env) Result {
	p, err := parseFlags(args)
	if err != nil {
		return Failure("%s", err)
	}
	amountArg, ok := p.arg(0)
	if !ok {
		return Failure("error: the following required arguments were not provided: <AMOUNT>")
	}
	amount, err := chain.ParseSOL(amountArg)
	if err != nil {
		return Failure("error: invalid value '%s' for '<AMOUNT>': %s", amountArg, err)
	}
	if amount == 0 {
		return Failure("error: invalid value '%s' for '<AMOUNT>': amount must be greater than zero", amountArg)
	}
	recipientArg, _ := p.arg(1)
	recipient, fail := resolveWallet(recipientArg, env)
	if fail != nil {
		return *fail
	}
	if env.State.Config.RPCURL == chain.MainnetBetaURL {
		return Failure("Error: airdrops are not available on mainnet-beta")
	}
	if amount > MaxAirdropLamports {
		return Failure("Error: airdrop request failed. This can happen when the rate limit is reached.")
	}

	sig := env.Keys().Signature()
	w, _ := env.State.Wallet(recipient)
	out := fmt.Sprintf("Requesting airdrop of %s SOL\n\nSignature: %s\n\n%s SOL",
		chain.FormatSOL(amount), sig, chain.FormatSOL(w.Lamports+amount))
	return Success(out,
		AdjustBalance{Pubkey: recipient, Delta: int64(amount)},
		RecordTx{Signature: sig, Description: fmt.Sprintf("airdrop %s SOL to %s", chain.FormatSOL(amount), recipient)},
	)
}

func solanaBalance(args []string, env Env) Result {
	p, err := parseFlags(args, boolFlag("--lamports"))
	if err != nil {
		return Failure("%s", err)
	}
	addrArg, _ := p.arg(0)
	addr, fail := resolveWallet(addrArg, env)
	if fail != nil {
		return *fail
	}
	w, _ := env.State.Wallet(addr)
	if p.has("--lamports") {
		return Success(fmt.Sprintf("%d lamports", w.Lamports))
	}
	return Success(chain.FormatSOL(w.Lamports) + " SOL")
}

func solanaTransfer(args []string, env Env) Result {
	p, err := parseFlags(args, boolFlag("--allow-unfunded-recipient"))
	if err != nil {
		return Failure("%s", err)
	}
	if len(p.positional) < 2 {
		return Failure("error: the following required arguments were not provided: <RECIPIENT_ADDRESS> <AMOUNT>")
	}
	from, ok := env.State.Default()
	if !ok {
		return noSignerFailure(env.State)
	}
	to := p.positional[0]
	if !chain.IsAddress(to) {
		return Failure("error: invalid value '%s' for '<RECIPIENT_ADDRESS>': Invalid pubkey", to)
	}

	var amount uint64
	if p.positional[1] == "ALL" {
		if from.Lamports <= TransferFeeLamports {
			return Failure("Error: Account %s has insufficient funds for fee (%s SOL)", from.Pubkey, chain.FormatSOL(TransferFeeLamports))
		}
		amount = from.Lamports - TransferFeeLamports
	} else {
		amount, err = chain.ParseSOL(p.positional[1])
		if err != nil {
			return Failure("error: invalid value '%s' for '<AMOUNT>': %s", p.positional[1], err)
		}
	}
	if amount == 0 {
		return Failure("error: invalid value '%s' for '<AMOUNT>': amount must be greater than zero", p.positional[1])
	}
	if amount > from.Lamports || from.Lamports-amount < TransferFeeLamports {
		return Failure("Error: Account %s has insufficient funds for spend (%s SOL) + fee (%s SOL)",
			from.Pubkey, chain.FormatSOL(amount), chain.FormatSOL(TransferFeeLamports))
	}
	if _, funded := env.State.Wallet(to); !funded && !p.has("--allow-unfunded-recipient") && to != from.Pubkey {
		return Failure("Error: The recipient address (%s) is not funded. Add `--allow-unfunded-recipient` to complete the transfer", to)
	}

	sig := env.Keys().Signature()
	return Success("\nSignature: "+sig,
		AdjustBalance{Pubkey: from.Pubkey, Delta: -int64(amount + TransferFeeLamports)},
		AdjustBalance{Pubkey: to, Delta: int64(amount)},
		RecordTx{Signature: sig, Description: fmt.Sprintf("transfer %s SOL to %s", chain.FormatSOL(amount), to)},
	)
}

func solanaAccount(args []string, env Env) Result {
	if len(args) == 0 {
		return Failure("error: the following required arguments were not provided: <ACCOUNT_ADDRESS>")
	}
	addr := args[0]
	if prog, ok := env.State.Programs[addr]; ok {
		return Success(strings.Join([]string{
			"Public Key: " + prog.ProgramID,
			"Balance: 0.00114144 SOL",
			"Owner: " + bpfLoaderProgramID,
			"Executable: true",
			"Rent Epoch: 18446744073709551615",
		}, "\n"))
	}
	w, ok := env.State.Wallet(addr)
	if !ok {
		return Failure("Error: AccountNotFound: pubkey=%s", addr)
	}
	return Success(strings.Join([]string{
		"Public Key: " + w.Pubkey,
		"Balance: " + chain.FormatSOL(w.Lamports) + " SOL",
		"Owner: " + systemProgramID,
		"Executable: false",
		"Rent Epoch: 18446744073709551615",
	}, "\n"))
}

func solanaProgram(args []string, env Env) Result {
	if len(args) == 0 || args[0] != "show" {
		return Failure("error: 'solana program' supports only 'show' in this console; deploy with `anchor deploy`")
	}
	if len(args) < 2 {
		return Failure("error: the following required arguments were not provided: <ACCOUNT_ADDRESS>")
	}
	prog, ok := env.State.Programs[args[1]]
	if !ok {
		return Failure("Error: Unable to find the account %s", args[1])
	}
	lines := []string{
		"Program Id: " + prog.ProgramID,
		"Owner: " + bpfLoaderProgramID,
		"Authority: " + prog.Authority,
		"Deployed At: " + prog.DeployedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if prog.Name != "" {
		lines = append(lines, "Name: "+prog.Name)
	}
	return Success(strings.Join(lines, "\n"))
}

func solanaConfirm(args []string, env Env) Result {
	if len(args) == 0 {
		return Failure("error: the following required arguments were not provided: <TRANSACTION_SIGNATURE>")
	}
	if _, ok := env.State.Transaction(args[0]); !ok {
		return Failure("Error: signature %s not found", args[0])
	}
	return Success("Finalized")
}

func solanaHistory(env Env) Result {
	txs := env.State.Transactions
	var b strings.Builder
	for _, tx := range txs {
		fmt.Fprintf(&b, "%s  %s\n", tx.Signature, tx.Description)
	}
	fmt.Fprintf(&b, "%d transactions found", len(txs))
	return Success(b.String())
}

const solanaHelp = `solana-cli ` + solanaVersion + `
Blockchain, Rebuilt for Scale

USAGE:
    solana <SUBCOMMAND>

SUBCOMMANDS:
    account                Show the contents of an account
    address                Get your public key
    airdrop                Request SOL from a faucet
    balance                Get your balance
    config                 Solana command-line tool configuration settings
    confirm                Confirm transaction by signature
    program                Program management
    transaction-history    Show historical transactions affecting the given address
    transfer               Transfer funds between system accounts`
