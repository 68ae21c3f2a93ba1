// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/zeebo/blake3"
	"pgregory.net/rand"
)

const (
	// PubkeyLen is the length of an address in bytes
	PubkeyLen = 32
	// KeypairLen is the length of a keypair file: secret then public key
	KeypairLen = 64
	// SignatureLen is the length of a transaction signature in bytes
	SignatureLen = 64
)

var (
	errKeypairLength = errors.New("keypair must contain 64 bytes")
	errKeypairByte   = errors.New("keypair bytes must be in the range 0-255")
	errKeypairPubkey = errors.New("keypair public key does not match its secret")
)

// Keypair is a simulated signing keypair. The public half is derived from
// the secret half, so a keypair file alone determines its address.
type Keypair struct {
	Secret [PubkeyLen]byte
	Public [PubkeyLen]byte
}

// Address returns the base58 public key.
func (kp Keypair) Address() string {
	return base58.Encode(kp.Public[:])
}

// Bytes returns the 64 byte file layout: secret followed by public key.
func (kp Keypair) Bytes() []byte {
	b := make([]byte, 0, KeypairLen)
	b = append(b, kp.Secret[:]...)
	return append(b, kp.Public[:]...)
}

// MarshalFile encodes the keypair as a JSON array of byte values.
func (kp Keypair) MarshalFile() string {
	raw := kp.Bytes()
	values := make([]int, len(raw))
	for i, b := range raw {
		values[i] = int(b)
	}
	out, _ := json.Marshal(values) // a slice of ints always encodes
	return string(out)
}

func keypairFromSecret(secret [PubkeyLen]byte) Keypair {
	return Keypair{
		Secret: secret,
		Public: blake3.Sum256(secret[:]),
	}
}

// ParseKeypairFile decodes a keypair file written by [Keypair.MarshalFile].
func ParseKeypairFile(content string) (Keypair, error) {
	var values []int
	if err := json.Unmarshal([]byte(content), &values); err != nil {
		return Keypair{}, fmt.Errorf("invalid keypair file: %w", err)
	}
	if len(values) != KeypairLen {
		return Keypair{}, errKeypairLength
	}
	var secret [PubkeyLen]byte
	for i, v := range values {
		if v < 0 || v > 255 {
			return Keypair{}, errKeypairByte
		}
		if i < PubkeyLen {
			secret[i] = byte(v)
		}
	}
	kp := keypairFromSecret(secret)
	for i := 0; i < PubkeyLen; i++ {
		if byte(values[PubkeyLen+i]) != kp.Public[i] {
			return Keypair{}, errKeypairPubkey
		}
	}
	return kp, nil
}

// KeySource produces addresses, keypairs and signatures from a caller
// supplied seed. Two sources with the same seed produce the same sequence.
type KeySource struct {
	rnd *rand.Rand
}

// NewKeySource returns a KeySource seeded with [seed].
func NewKeySource(seed uint64) *KeySource {
	return &KeySource{rnd: rand.New(seed)}
}

func (k *KeySource) fill(b []byte) {
	_, _ = k.rnd.Read(b) // never fails
}

// Keypair returns the next keypair.
func (k *KeySource) Keypair() Keypair {
	var secret [PubkeyLen]byte
	k.fill(secret[:])
	return keypairFromSecret(secret)
}

// Pubkey returns the next standalone address.
func (k *KeySource) Pubkey() string {
	return k.Keypair().Address()
}

// Signature returns the next transaction signature.
func (k *KeySource) Signature() string {
	sig := make([]byte, SignatureLen)
	k.fill(sig)
	return base58.Encode(sig)
}

// Words returns [n] mnemonic words for display as a seed phrase.
func (k *KeySource) Words(n int) []string {
	words := make([]string, n)
	for i := range words {
		words[i] = mnemonicWords[k.rnd.Intn(len(mnemonicWords))]
	}
	return words
}

// AssociatedTokenAddress returns the token account address owned by [owner]
// for [mint]. The address depends only on its inputs.
func AssociatedTokenAddress(owner, mint string) string {
	h := blake3.New()
	_, _ = h.Write([]byte("associated-token-account"))
	_, _ = h.Write([]byte(owner))
	_, _ = h.Write([]byte(mint))
	return base58.Encode(h.Sum(nil))
}

// IsAddress reports whether [s] is a base58 encoded 32 byte address.
func IsAddress(s string) bool {
	b, err := base58.Decode(s)
	return err == nil && len(b) == PubkeyLen
}

var mnemonicWords = []string{
	"abandon", "anchor", "august", "banana", "bridge", "cactus", "canvas", "cherry",
	"crystal", "dolphin", "eagle", "ember", "fabric", "falcon", "garden", "glacier",
	"harbor", "helmet", "island", "jungle", "kernel", "ladder", "lantern", "meadow",
	"mirror", "nature", "oyster", "planet", "quantum", "ribbon", "saddle", "shadow",
	"signal", "timber", "tunnel", "uniform", "velvet", "wallet", "winter", "zebra",
}
