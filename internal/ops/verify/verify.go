// Package verify re-derives saved wallet files and checks that the stored
// address, keys and mnemonic still agree with each other.
package verify

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"ethaddr/internal/crypto"
	"ethaddr/internal/keystore"
	"ethaddr/internal/mnemonic"
	"ethaddr/pkg/logx"
)

var (
	ErrMismatch      = errors.New("record mismatch")
	ErrNeedsPassword = errors.New("encrypted record needs a password")
)

type Options struct {
	Files    []string
	Password string // for records saved with KEYSTORE_PASSWORD
}

type Result struct {
	File    string
	Address string
	Err     error
}

// Files checks every file and returns one Result per file processed. The
// error is non-nil when any file failed or ctx was cancelled.
func Files(ctx context.Context, opt Options) ([]Result, error) {
	app := logx.S()
	start := time.Now()

	var okCnt, failCnt int
	out := make([]Result, 0, len(opt.Files))
	for _, path := range opt.Files {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		addr, err := File(path, opt.Password)
		out = append(out, Result{File: path, Address: addr, Err: err})
		if err != nil {
			failCnt++
			app.Errorw("verify failed", "file", path, "err", err)
			continue
		}
		okCnt++
		app.Infow("verified", "file", path, "address", addr)
	}

	app.Infow("verify finished",
		"total", len(opt.Files),
		"ok", okCnt,
		"failed", failCnt,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	if failCnt > 0 {
		return out, fmt.Errorf("%d of %d files failed verification", failCnt, len(opt.Files))
	}
	return out, nil
}

// File verifies one record and returns its address.
func File(path, password string) (string, error) {
	rec, err := keystore.Load(path)
	if err != nil {
		return "", err
	}
	if base := filepath.Base(path); base != rec.Address+".json" {
		return rec.Address, fmt.Errorf("%w: file name %s", ErrMismatch, base)
	}

	if len(rec.Keystore) > 0 {
		return rec.Address, checkKeystore(rec, password)
	}
	return rec.Address, checkMnemonic(rec)
}

func checkKeystore(rec *keystore.Record, password string) error {
	if password == "" {
		return ErrNeedsPassword
	}
	priv, addr, err := crypto.DecryptKeystore(rec.Keystore, password)
	if err != nil {
		return err
	}
	if addr != rec.Address || crypto.AddressHex(priv) != rec.Address {
		return fmt.Errorf("%w: keystore address %s", ErrMismatch, addr)
	}
	if crypto.PubToHex(priv) != rec.PublicKey {
		return fmt.Errorf("%w: public key", ErrMismatch)
	}
	return nil
}

func checkMnemonic(rec *keystore.Record) error {
	if rec.Mnemonic == nil || rec.Mnemonic.Phrase == "" {
		return fmt.Errorf("%w: no mnemonic and no keystore", ErrMismatch)
	}
	if rec.Mnemonic.Entropy != "" {
		phrase, err := mnemonic.PhraseFromEntropy(rec.Mnemonic.Entropy)
		if err != nil {
			return err
		}
		if phrase != rec.Mnemonic.Phrase {
			return fmt.Errorf("%w: entropy does not encode the phrase", ErrMismatch)
		}
	}
	if rec.Index < 0 {
		return fmt.Errorf("%w: index %d", ErrMismatch, rec.Index)
	}

	derived, err := mnemonic.Derive(rec.Mnemonic.Phrase, rec.Mnemonic.Password, rec.Index+1)
	if err != nil {
		return err
	}
	w := derived[rec.Index]
	if w.Path != rec.Path {
		return fmt.Errorf("%w: path %s, derived %s", ErrMismatch, rec.Path, w.Path)
	}
	if !strings.EqualFold(w.Address, rec.Address) {
		return fmt.Errorf("%w: derived address %s", ErrMismatch, w.Address)
	}
	if rec.PrivateKey != "" && crypto.PrivToHex(w.Priv) != strings.ToLower(rec.PrivateKey) {
		return fmt.Errorf("%w: private key", ErrMismatch)
	}
	if crypto.PubToHex(w.Priv) != strings.ToLower(rec.PublicKey) {
		return fmt.Errorf("%w: public key", ErrMismatch)
	}
	return nil
}
