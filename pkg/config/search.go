// Package config loads search settings from the environment, optionally
// seeded from a dotenv file. Real environment variables win over the file.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// MinimalLeadKey is the minimum count of leading hex zeros an address needs
	MinimalLeadKey = "MINIMAL_LEAD"
	// MinimalAddrKey is how many wallets each worker saves before it stops
	MinimalAddrKey = "MINIMAL_ADDR"
	// AddressPathKey is the output directory for wallet files
	AddressPathKey = "ADDRESS_PATH"
	// SecretPieceKey is the hex string mixed into every entropy value
	SecretPieceKey = "SECRET_PIECE"
	// RandomBytesKey is the size in bytes of the fresh random chunk per attempt
	RandomBytesKey = "RANDOM_BYTES"
	// WorkersKey is the number of independent in-process searchers
	WorkersKey = "WORKERS"
	// CaseSensitiveKey disables lowercase normalization before prefix matching
	CaseSensitiveKey = "CASE_SENSITIVE"
	// ProgressIntervalKey is the period of progress log lines, 0 disables them
	ProgressIntervalKey = "PROGRESS_INTERVAL"
	// KeystorePasswordKey switches wallet files to encrypted keystore blobs
	KeystorePasswordKey = "KEYSTORE_PASSWORD"
	// KeystoreHintKey is saved to hint.txt in the run log directory
	KeystoreHintKey = "KEYSTORE_HINT"

	MaxLead = 40 // hex digits in an address
)

var (
	ErrMissing = errors.New("missing required value")
	ErrInvalid = errors.New("invalid value")
)

// Error is a configuration problem detected before the search starts.
type Error struct {
	Key string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("config %s: %v", e.Key, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

func invalid(key, format string, args ...any) error {
	return &Error{Key: key, Err: fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)}
}

type Search struct {
	MinimalLead      int
	MinimalAddr      int
	AddressPath      string
	SecretPiece      string
	RandomBytes      int
	Workers          int
	CaseSensitive    bool
	ProgressInterval time.Duration
	KeystorePassword string
	KeystoreHint     string
}

// EntropyBits is the size of one combined entropy value.
func (s *Search) EntropyBits() int {
	return 4 * (len(s.SecretPiece) + 2*s.RandomBytes)
}

// Load reads the search settings. envFile may be empty or absent.
func Load(envFile string) (*Search, error) {
	vip := viper.New()
	vip.AutomaticEnv()

	vip.SetDefault(RandomBytesKey, 24)
	vip.SetDefault(WorkersKey, 1)
	vip.SetDefault(CaseSensitiveKey, false)
	vip.SetDefault(ProgressIntervalKey, "10s")

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			vip.SetConfigFile(envFile)
			vip.SetConfigType("env")
			if err := vip.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read %q: %w", envFile, err)
			}
		}
	}

	s := &Search{
		AddressPath:      strings.TrimSpace(vip.GetString(AddressPathKey)),
		SecretPiece:      strings.ToLower(strings.TrimPrefix(strings.TrimSpace(vip.GetString(SecretPieceKey)), "0x")),
		KeystorePassword: vip.GetString(KeystorePasswordKey),
		KeystoreHint:     vip.GetString(KeystoreHintKey),
	}

	var err error
	if s.MinimalLead, err = requiredInt(vip, MinimalLeadKey); err != nil {
		return nil, err
	}
	if s.MinimalAddr, err = requiredInt(vip, MinimalAddrKey); err != nil {
		return nil, err
	}
	if s.RandomBytes, err = requiredInt(vip, RandomBytesKey); err != nil {
		return nil, err
	}
	if s.Workers, err = requiredInt(vip, WorkersKey); err != nil {
		return nil, err
	}
	if s.CaseSensitive, err = strconv.ParseBool(strings.TrimSpace(vip.GetString(CaseSensitiveKey))); err != nil {
		return nil, invalid(CaseSensitiveKey, "%v", err)
	}
	if s.ProgressInterval, err = time.ParseDuration(strings.TrimSpace(vip.GetString(ProgressIntervalKey))); err != nil {
		return nil, invalid(ProgressIntervalKey, "%v", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func requiredInt(vip *viper.Viper, key string) (int, error) {
	raw := strings.TrimSpace(vip.GetString(key))
	if raw == "" {
		return 0, &Error{Key: key, Err: ErrMissing}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalid(key, "%q is not an integer", raw)
	}
	return n, nil
}

func (s *Search) Validate() error {
	if s.MinimalLead < 0 || s.MinimalLead > MaxLead {
		return invalid(MinimalLeadKey, "must be within 0..%d", MaxLead)
	}
	if s.MinimalAddr < 1 {
		return invalid(MinimalAddrKey, "must be >= 1")
	}
	if s.AddressPath == "" {
		return &Error{Key: AddressPathKey, Err: ErrMissing}
	}
	if s.SecretPiece == "" {
		return &Error{Key: SecretPieceKey, Err: ErrMissing}
	}
	if _, err := hex.DecodeString(s.SecretPiece); err != nil {
		return invalid(SecretPieceKey, "not an even-length hex string")
	}
	if s.RandomBytes < 1 {
		return invalid(RandomBytesKey, "must be >= 1")
	}
	if len(s.SecretPiece) > 2*s.RandomBytes {
		return invalid(SecretPieceKey, "%d hex digits exceed the %d-digit random chunk", len(s.SecretPiece), 2*s.RandomBytes)
	}
	if bits := s.EntropyBits(); bits < 128 || bits > 256 || bits%32 != 0 {
		return invalid(SecretPieceKey, "combined entropy of %d bits is not 128..256 in steps of 32", bits)
	}
	if s.Workers < 1 {
		return invalid(WorkersKey, "must be >= 1")
	}
	if s.ProgressInterval < 0 {
		return invalid(ProgressIntervalKey, "must not be negative")
	}
	return nil
}
