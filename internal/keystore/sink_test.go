package keystore

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ethaddr/internal/crypto"
	"ethaddr/internal/mnemonic"
)

func testWallet(t *testing.T) *mnemonic.Wallet {
	t.Helper()
	w, err := mnemonic.FromEntropy(strings.Repeat("00", 16))
	require.NoError(t, err)
	return w
}

func readIndex(t *testing.T, dir string) []indexEntry {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, IndexFile))
	require.NoError(t, err)
	defer f.Close()

	var out []indexEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e indexEntry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		out = append(out, e)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestFileSinkSavePlain(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	sink, err := NewFileSink(dir, "run-1", "")
	require.NoError(t, err)

	w := testWallet(t)
	require.NoError(t, sink.Save(w))

	raw, err := os.ReadFile(filepath.Join(dir, w.Address+".json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n    \"address\"")

	rec, err := Load(sink.Path(w.Address))
	require.NoError(t, err)
	assert.Equal(t, w.Address, rec.Address)
	assert.Equal(t, crypto.PrivToHex(w.Priv), rec.PrivateKey)
	assert.Equal(t, crypto.PubToHex(w.Priv), rec.PublicKey)
	assert.Equal(t, "m/44'/60'/0'/0/0", rec.Path)
	assert.Equal(t, 5, rec.Depth)
	require.NotNil(t, rec.Mnemonic)
	assert.Equal(t, w.Mnemonic, rec.Mnemonic.Phrase)
	assert.Equal(t, "0x"+strings.Repeat("00", 16), rec.Mnemonic.Entropy)
	assert.Empty(t, rec.Keystore)

	idx := readIndex(t, dir)
	require.Len(t, idx, 1)
	assert.Equal(t, "run-1", idx[0].RunID)
	assert.Equal(t, w.Address+".json", idx[0].File)
}

func TestFileSinkSaveEncrypted(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir, "run-2", "pw")
	require.NoError(t, err)

	w := testWallet(t)
	require.NoError(t, sink.Save(w))

	rec, err := Load(sink.Path(w.Address))
	require.NoError(t, err)
	assert.Empty(t, rec.PrivateKey)
	assert.Nil(t, rec.Mnemonic)
	require.NotEmpty(t, rec.Keystore)

	priv, addr, err := crypto.DecryptKeystore(rec.Keystore, "pw")
	require.NoError(t, err)
	assert.Equal(t, w.Address, addr)
	assert.True(t, w.Priv.Equal(priv))
}

func TestFileSinkOverwritesSameAddress(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir, "run-3", "")
	require.NoError(t, err)

	w := testWallet(t)
	require.NoError(t, sink.Save(w))
	require.NoError(t, sink.Save(w))

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Len(t, readIndex(t, dir), 2)
}

func TestFileSinkWriteFailure(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir, "run-4", "")
	require.NoError(t, err)

	w := testWallet(t)
	// a directory in the way of the target file
	require.NoError(t, os.Mkdir(sink.Path(w.Address), 0o755))
	assert.Error(t, sink.Save(w))
}

func TestFileSinkIndexFailureKeepsWallet(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir, "run-5", "")
	require.NoError(t, err)

	// a directory where the index file should be
	require.NoError(t, os.Mkdir(filepath.Join(dir, IndexFile), 0o755))

	w := testWallet(t)
	require.NoError(t, sink.Save(w))

	rec, err := Load(sink.Path(w.Address))
	require.NoError(t, err)
	assert.Equal(t, w.Address, rec.Address)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = Load(bad)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte("{}"), 0o600))
	_, err = Load(empty)
	assert.Error(t, err)
}

func TestAppendJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "x.jsonl")
	require.NoError(t, AppendJSONL(path, []byte(`{"a":1}`)))
	require.NoError(t, AppendJSONL(path, []byte(`{"a":2}`)))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n{\"a\":2}\n", string(b))
}
