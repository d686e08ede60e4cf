package mnemonic

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
	bip39 "github.com/tyler-smith/go-bip39"
)

// BasePath is the first external-chain account on the Ethereum coin type.
const BasePath = "m/44'/60'/0'/0"

var ErrInvalidEntropy = errors.New("invalid entropy")

type Wallet struct {
	Mnemonic string
	Entropy  string // hex, no 0x
	Index    int
	Path     string
	Priv     *ecdsa.PrivateKey
	Address  string // EIP-55
}

// PhraseFromEntropy encodes hex entropy (optionally 0x-prefixed) as a
// checksummed English phrase. Entropy must be 128..256 bits in steps of 32.
func PhraseFromEntropy(entropyHex string) (string, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(entropyHex, "0x"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEntropy, err)
	}
	mn, err := bip39.NewMnemonic(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEntropy, err)
	}
	return mn, nil
}

// FromEntropy derives the wallet at BasePath/0 from hex entropy with an
// empty passphrase. Same entropy, same wallet.
func FromEntropy(entropyHex string) (*Wallet, error) {
	mn, err := PhraseFromEntropy(entropyHex)
	if err != nil {
		return nil, err
	}
	derived, err := Derive(mn, "", 1)
	if err != nil {
		return nil, fmt.Errorf("derive wallet: %w", err)
	}
	w := derived[0]
	w.Entropy = strings.ToLower(strings.TrimPrefix(entropyHex, "0x"))
	return &w, nil
}

// Derive walks BasePath/0..n-1 from the phrase.
func Derive(mn, passphrase string, n int) ([]Wallet, error) {
	if n <= 0 {
		n = 1
	}
	seed, err := bip39.NewSeedWithErrorChecking(mn, passphrase)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	w, err := hdwallet.NewFromSeed(seed)
	if err != nil {
		return nil, err
	}
	out := make([]Wallet, 0, n)
	for i := 0; i < n; i++ {
		pathStr := fmt.Sprintf("%s/%d", BasePath, i)
		path, err := hdwallet.ParseDerivationPath(pathStr)
		if err != nil {
			return nil, err
		}
		acct, err := w.Derive(path, false)
		if err != nil {
			return nil, err
		}
		priv, err := w.PrivateKey(acct)
		if err != nil {
			return nil, err
		}
		out = append(out, Wallet{
			Mnemonic: mn,
			Index:    i,
			Path:     pathStr,
			Priv:     priv,
			Address:  acct.Address.Hex(),
		})
	}
	return out, nil
}

// Depth counts the levels below the master key in a derivation path.
func Depth(path string) int {
	return strings.Count(path, "/")
}
