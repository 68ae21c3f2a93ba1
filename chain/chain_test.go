// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func lamports(v uint64) *uint64 { return &v }

func TestUpsertWalletDefaultIsStable(t *testing.T) {
	assert := assert.New(t)
	s := NewState()

	s1 := UpsertWallet(s, WalletUpdate{Pubkey: "first", KeypairPath: "/k1"})
	assert.Equal("first", s1.DefaultWallet)
	s2 := UpsertWallet(s1, WalletUpdate{Pubkey: "second"})
	assert.Equal("first", s2.DefaultWallet)
	assert.Len(s2.Wallets, 2)

	// the original snapshot is untouched
	assert.Empty(s.Wallets)
	assert.Empty(s.DefaultWallet)
	assert.Len(s1.Wallets, 1)
}

func TestUpsertWalletMerges(t *testing.T) {
	assert := assert.New(t)
	s := UpsertWallet(NewState(), WalletUpdate{Pubkey: "w", Lamports: lamports(5), KeypairPath: "/k"})
	s = UpsertWallet(s, WalletUpdate{Pubkey: "w"})

	w, ok := s.Wallet("w")
	assert.True(ok)
	assert.Equal(uint64(5), w.Lamports)
	assert.Equal("/k", w.KeypairPath)

	s = UpsertWallet(s, WalletUpdate{Pubkey: "w", Lamports: lamports(0)})
	w, _ = s.Wallet("w")
	assert.Zero(w.Lamports)
	assert.Equal("/k", w.KeypairPath)
}

func TestAdjustBalance(t *testing.T) {
	assert := assert.New(t)
	s := AdjustBalance(NewState(), "w", 2*LamportsPerSOL)
	w, ok := s.Wallet("w")
	assert.True(ok)
	assert.Equal(uint64(2*LamportsPerSOL), w.Lamports)
	// creating a wallet through a balance change does not set the default
	assert.Empty(s.DefaultWallet)

	s = AdjustBalance(s, "w", -5*LamportsPerSOL)
	w, _ = s.Wallet("w")
	assert.Zero(w.Lamports)

	s = AdjustBalance(s, "w", math.MinInt64)
	w, _ = s.Wallet("w")
	assert.Zero(w.Lamports)

	s = AdjustBalance(s, "w", math.MaxInt64)
	s = AdjustBalance(s, "w", math.MaxInt64)
	s = AdjustBalance(s, "w", math.MaxInt64)
	w, _ = s.Wallet("w")
	assert.Equal(uint64(math.MaxUint64), w.Lamports)
}

func TestSetConfig(t *testing.T) {
	assert := assert.New(t)
	s := NewState()

	s = SetConfig(s, ConfigURL, LocalhostURL)
	assert.Equal(LocalhostURL, s.Config.RPCURL)
	assert.Equal("ws://localhost:8900/", s.Config.WebsocketURL)
	assert.Equal("localnet", s.Config.Cluster())

	s = SetConfig(s, ConfigCommitment, "finalized")
	assert.Equal(Finalized, s.Config.Commitment)

	// unrecognized commitments are ignored silently
	ignored := SetConfig(s, ConfigCommitment, "max")
	assert.Equal(s, ignored)

	s = SetConfig(s, ConfigKeypair, "/home/user/other.json")
	assert.Equal("/home/user/other.json", s.Config.KeypairPath)
	assert.Equal(s, SetConfig(s, ConfigKey("bogus"), "x"))
}

func TestRecordTransactionNewestFirst(t *testing.T) {
	assert := assert.New(t)
	s0 := NewState()
	s1 := RecordTransaction(s0, "sig1", "first", testTime)
	s2 := RecordTransaction(s1, "sig2", "second", testTime.Add(time.Second))

	require.Len(t, s2.Transactions, 2)
	assert.Equal("sig2", s2.Transactions[0].Signature)
	assert.Equal("sig1", s2.Transactions[1].Signature)
	assert.Len(s1.Transactions, 1)
	assert.Empty(s0.Transactions)

	tx, ok := s2.Transaction("sig1")
	assert.True(ok)
	assert.Equal("first", tx.Description)
	assert.Equal(testTime, tx.Timestamp)
}

func TestDeployProgramAuthority(t *testing.T) {
	assert := assert.New(t)
	s := DeployProgram(NewState(), "prog1", "counter", testTime)
	assert.Equal(UnknownAuthority, s.Programs["prog1"].Authority)

	s = UpsertWallet(s, WalletUpdate{Pubkey: "owner"})
	s = DeployProgram(s, "prog2", "counter", testTime)
	assert.Equal("owner", s.Programs["prog2"].Authority)
	assert.Equal(testTime, s.Programs["prog2"].DeployedAt)
}

func TestTokenLifecycle(t *testing.T) {
	assert := assert.New(t)
	s := CreateToken(NewState(), "mint", 6, "owner")
	token, ok := s.Token("mint")
	assert.True(ok)
	assert.True(token.Supply.IsZero())

	assert.Equal(s, CreateToken(s, "other", 10, "owner"))

	ata := AssociatedTokenAddress("owner", "mint")
	s = CreateTokenAccount(s, ata, "owner", "mint")
	_, ok = s.AccountFor("owner", "mint")
	assert.True(ok)

	// accounts for unknown mints are refused
	assert.Equal(s, CreateTokenAccount(s, "x", "owner", "unknown"))

	s = MintTo(s, "mint", ata, uint256.NewInt(1000))
	token, _ = s.Token("mint")
	assert.Equal(uint64(1000), token.Supply.Uint64())
	acct, _ := s.TokenAccount(ata)
	assert.Equal(uint64(1000), acct.Balance.Uint64())

	// minting to an unknown account raises only the supply
	s = MintTo(s, "mint", "nobody", uint256.NewInt(1))
	token, _ = s.Token("mint")
	assert.Equal(uint64(1001), token.Supply.Uint64())

	// the supply ceiling is enforced
	assert.Equal(s, MintTo(s, "mint", ata, MaxTokenAmount))

	other := AssociatedTokenAddress("friend", "mint")
	s = CreateTokenAccount(s, other, "friend", "mint")
	before := s
	s = TransferTokens(s, ata, other, uint256.NewInt(400))
	acct, _ = s.TokenAccount(ata)
	assert.Equal(uint64(600), acct.Balance.Uint64())
	acct, _ = s.TokenAccount(other)
	assert.Equal(uint64(400), acct.Balance.Uint64())

	// the earlier snapshot still shows the old balances
	acct, _ = before.TokenAccount(ata)
	assert.Equal(uint64(1000), acct.Balance.Uint64())

	assert.Equal(s, TransferTokens(s, ata, other, uint256.NewInt(601)))
}

func TestParseUnits(t *testing.T) {
	tests := []struct {
		input    string
		decimals uint8
		want     uint64
		err      bool
	}{
		{"2", 9, 2 * LamportsPerSOL, false},
		{"2.5", 9, 2_500_000_000, false},
		{"0.000000001", 9, 1, false},
		{".5", 6, 500_000, false},
		{"1.", 0, 1, false},
		{"1000", 0, 1000, false},
		{"0001.10", 2, 110, false},
		{"0", 9, 0, false},
		{"1.5", 0, 0, true},
		{"0.0000000001", 9, 0, true},
		{"-1", 9, 0, true},
		{"abc", 9, 0, true},
		{"1e3", 9, 0, true},
		{".", 9, 0, true},
		{"", 9, 0, true},
		{"18446744073709551616", 0, 0, true},
		{"18446744073709551615", 0, math.MaxUint64, false},
	}
	for _, test := range tests {
		v, err := ParseUnits(test.input, test.decimals)
		if test.err {
			assert.Error(t, err, "ParseUnits(%q)", test.input)
			continue
		}
		if assert.NoError(t, err, "ParseUnits(%q)", test.input) {
			assert.Equal(t, test.want, v.Uint64(), "ParseUnits(%q)", test.input)
		}
	}
}

func TestFormatUnits(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("2", FormatSOL(2*LamportsPerSOL))
	assert.Equal("1.5", FormatSOL(1_500_000_000))
	assert.Equal("0.000000001", FormatSOL(1))
	assert.Equal("0", FormatSOL(0))
	assert.Equal("1000", FormatUnits(uint256.NewInt(1000), 0))
	assert.Equal("0.001", FormatUnits(uint256.NewInt(1000), 6))
	assert.Equal("0", FormatUnits(nil, 6))
}

func TestKeySourceDeterministic(t *testing.T) {
	assert := assert.New(t)
	a, b := NewKeySource(7), NewKeySource(7)
	assert.Equal(a.Keypair(), b.Keypair())
	assert.Equal(a.Signature(), b.Signature())
	assert.Equal(a.Words(12), b.Words(12))

	assert.NotEqual(NewKeySource(7).Pubkey(), NewKeySource(8).Pubkey())
	assert.True(IsAddress(NewKeySource(1).Pubkey()))
	assert.False(IsAddress("not-an-address"))
	assert.False(IsAddress(""))
}

func TestKeypairFileRoundTrip(t *testing.T) {
	assert := assert.New(t)
	kp := NewKeySource(42).Keypair()
	parsed, err := ParseKeypairFile(kp.MarshalFile())
	assert.NoError(err)
	assert.Equal(kp, parsed)
	assert.Equal(kp.Address(), parsed.Address())
	assert.Len(kp.Bytes(), KeypairLen)

	_, err = ParseKeypairFile("[1,2,3]")
	assert.ErrorIs(err, errKeypairLength)
	_, err = ParseKeypairFile("not json")
	assert.Error(err)

	tampered := kp.Bytes()
	tampered[KeypairLen-1] ^= 0xff
	values := make([]int, len(tampered))
	for i, v := range tampered {
		values[i] = int(v)
	}
	_, err = ParseKeypairFile(intsJSON(values))
	assert.ErrorIs(err, errKeypairPubkey)

	values[0] = 300
	_, err = ParseKeypairFile(intsJSON(values))
	assert.ErrorIs(err, errKeypairByte)
}

func intsJSON(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func TestAssociatedTokenAddress(t *testing.T) {
	assert := assert.New(t)
	a := AssociatedTokenAddress("owner", "mint")
	assert.Equal(a, AssociatedTokenAddress("owner", "mint"))
	assert.NotEqual(a, AssociatedTokenAddress("mint", "owner"))
	assert.True(IsAddress(a))
}
