package verify

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ethaddr/internal/keystore"
	"ethaddr/internal/mnemonic"
)

func saveWallet(t *testing.T, dir, password string) string {
	t.Helper()
	w, err := mnemonic.FromEntropy(strings.Repeat("7f", 32))
	require.NoError(t, err)
	sink, err := keystore.NewFileSink(dir, "verify-test", password)
	require.NoError(t, err)
	require.NoError(t, sink.Save(w))
	return sink.Path(w.Address)
}

func rewrite(t *testing.T, path string, edit func(r *keystore.Record)) {
	t.Helper()
	rec, err := keystore.Load(path)
	require.NoError(t, err)
	edit(rec)
	b, err := json.MarshalIndent(rec, "", "    ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
}

func TestFilePlain(t *testing.T) {
	path := saveWallet(t, t.TempDir(), "")
	addr, err := File(path, "")
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSuffix(filepath.Base(path), ".json"), addr)
}

func TestFileEncrypted(t *testing.T) {
	path := saveWallet(t, t.TempDir(), "pw")

	_, err := File(path, "")
	assert.ErrorIs(t, err, ErrNeedsPassword)

	_, err = File(path, "nope")
	assert.Error(t, err)

	_, err = File(path, "pw")
	assert.NoError(t, err)
}

func TestFileDetectsTampering(t *testing.T) {
	tests := []struct {
		name string
		edit func(r *keystore.Record)
	}{
		{name: "private key", edit: func(r *keystore.Record) { r.PrivateKey = "0x" + strings.Repeat("1", 64) }},
		{name: "public key", edit: func(r *keystore.Record) { r.PublicKey = "0x02" + strings.Repeat("1", 64) }},
		{name: "entropy", edit: func(r *keystore.Record) { r.Mnemonic.Entropy = "0x" + strings.Repeat("00", 32) }},
		{name: "index", edit: func(r *keystore.Record) { r.Index = 1 }},
		{name: "no mnemonic", edit: func(r *keystore.Record) { r.Mnemonic = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := saveWallet(t, t.TempDir(), "")
			rewrite(t, path, tt.edit)
			_, err := File(path, "")
			assert.ErrorIs(t, err, ErrMismatch)
		})
	}
}

func TestFileRenamed(t *testing.T) {
	dir := t.TempDir()
	path := saveWallet(t, dir, "")
	moved := filepath.Join(dir, "0x0000000000000000000000000000000000000000.json")
	require.NoError(t, os.Rename(path, moved))

	_, err := File(moved, "")
	assert.ErrorIs(t, err, ErrMismatch)
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	good := saveWallet(t, dir, "")
	missing := filepath.Join(dir, "missing.json")

	res, err := Files(context.Background(), Options{Files: []string{good, missing}})
	require.Error(t, err)
	require.Len(t, res, 2)
	assert.NoError(t, res[0].Err)
	assert.Error(t, res[1].Err)

	res, err = Files(context.Background(), Options{Files: []string{good}})
	require.NoError(t, err)
	require.Len(t, res, 1)
}

func TestFilesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Files(ctx, Options{Files: []string{"a.json"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res)
}
