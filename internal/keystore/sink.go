package keystore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"ethaddr/internal/crypto"
	"ethaddr/internal/mnemonic"
	"ethaddr/pkg/logx"
)

// IndexFile is the secret-free manifest appended next to wallet files.
const IndexFile = "index.jsonl"

type Record struct {
	Address    string          `json:"address"`
	PublicKey  string          `json:"publicKey"`
	PrivateKey string          `json:"privateKey,omitempty"`
	Path       string          `json:"path"`
	Index      int             `json:"index"`
	Depth      int             `json:"depth"`
	Mnemonic   *MnemonicRecord `json:"mnemonic,omitempty"`
	Keystore   json.RawMessage `json:"keystore,omitempty"`
}

type MnemonicRecord struct {
	Phrase   string `json:"phrase"`
	Password string `json:"password"`
	Entropy  string `json:"entropy"`
	Locale   string `json:"locale"`
}

type indexEntry struct {
	RunID   string `json:"run_id"`
	Address string `json:"address"`
	File    string `json:"file"`
	SavedAt string `json:"saved_at"`
}

// FileSink writes one <address>.json per wallet into Dir. A later save of
// the same address overwrites the earlier file.
type FileSink struct {
	Dir      string
	RunID    string
	password string

	mu sync.Mutex
}

// NewFileSink creates dir if needed. A non-empty password stores key
// material only as an encrypted keystore blob.
func NewFileSink(dir, runID, password string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %q: %w", dir, err)
	}
	return &FileSink{Dir: dir, RunID: runID, password: password}, nil
}

func (s *FileSink) Path(address string) string {
	return filepath.Join(s.Dir, address+".json")
}

func (s *FileSink) Save(w *mnemonic.Wallet) error {
	rec, err := s.record(w)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(rec, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", w.Address, err)
	}

	path := s.Path(w.Address)
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return err
	}

	// The wallet file is the result; the index is a convenience and a
	// failure to extend it does not fail the save.
	if err := s.appendIndex(w.Address, filepath.Base(path)); err != nil {
		logx.S().Warnw("index append failed", "address", w.Address, "err", err)
	}
	return nil
}

func (s *FileSink) appendIndex(address, file string) error {
	entry, err := json.Marshal(indexEntry{
		RunID:   s.RunID,
		Address: address,
		File:    file,
		SavedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal index entry: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return AppendJSONL(filepath.Join(s.Dir, IndexFile), entry)
}

func (s *FileSink) record(w *mnemonic.Wallet) (*Record, error) {
	rec := &Record{
		Address:   w.Address,
		PublicKey: crypto.PubToHex(w.Priv),
		Path:      w.Path,
		Index:     w.Index,
		Depth:     mnemonic.Depth(w.Path),
	}
	if s.password != "" {
		blob, err := crypto.KeystoreJSON(w.Priv, s.password)
		if err != nil {
			return nil, fmt.Errorf("keystore encrypt %s: %w", w.Address, err)
		}
		rec.Keystore = blob
		return rec, nil
	}
	rec.PrivateKey = crypto.PrivToHex(w.Priv)
	rec.Mnemonic = &MnemonicRecord{
		Phrase:  w.Mnemonic,
		Entropy: "0x" + w.Entropy,
		Locale:  "en",
	}
	return rec, nil
}

// Load reads a record written by FileSink.
func Load(path string) (*Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("decode %q: %w", path, err)
	}
	if rec.Address == "" {
		return nil, fmt.Errorf("decode %q: missing address", path)
	}
	return &rec, nil
}

func AppendJSONL(path string, jsonBlob []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(jsonBlob); err != nil {
		return err
	}
	_, err = f.Write([]byte("\n"))
	return err
}
