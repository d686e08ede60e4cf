package generator

import (
	"io"
	"time"

	"ethaddr/internal/entropy"
	"ethaddr/internal/mnemonic"
	"ethaddr/pkg/logx"
)

const (
	module             = "search"
	defaultRandomBytes = 24
)

// DeriveFunc turns hex entropy into a wallet.
type DeriveFunc func(entropyHex string) (*mnemonic.Wallet, error)

// Sink persists an accepted wallet.
type Sink interface {
	Save(w *mnemonic.Wallet) error
}

// SourceFunc hands worker its own random byte stream and shuffle source.
type SourceFunc func(worker int) (io.Reader, entropy.Source, error)

type Options struct {
	SecretPiece   string // hex, mixed into every entropy value
	MinimalLead   int
	CaseSensitive bool
	Target        int // accepted wallets per worker
	Workers       int
	RandomBytes   int // 24 when zero

	Sink    Sink
	Derive  DeriveFunc           // mnemonic.FromEntropy when nil
	Sources SourceFunc           // crypto/rand + ChaCha8 when nil
	Done    func(found int) bool // found >= Target when nil

	RunID            string
	LogsBase         string // per-run log dir under it; empty: keep the current logger
	Log              logx.Config
	KeystoreHint     string
	ProgressInterval time.Duration // 0 disables progress lines
	HideSecrets      bool          // keep mnemonic/private key out of FOUND lines
	Encrypted        bool          // sink stores keys encrypted; secrets never reach any log
}

type Stats struct {
	Found    uint64
	Attempts uint64
	Elapsed  time.Duration
	RunDir   string
}
