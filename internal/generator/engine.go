package generator

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"ethaddr/internal/crypto"
	"ethaddr/internal/entropy"
	"ethaddr/internal/logsink"
	"ethaddr/internal/mnemonic"
	"ethaddr/internal/patterns"
	"ethaddr/pkg/logx"
)

// PersistenceError is returned when the sink rejects an accepted wallet.
// The search does not retry.
type PersistenceError struct {
	Address string
	Err     error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persist %s: %v", e.Address, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

type counters struct {
	attempts atomic.Uint64
	found    atomic.Uint64
}

// Run starts opt.Workers independent searchers, each pursuing opt.Target
// accepted wallets, and waits for all of them. The first failure cancels
// the others.
func Run(ctx context.Context, opt Options) (*Stats, error) {
	if opt.Sink == nil {
		return nil, errors.New("nil sink")
	}
	if opt.Workers <= 0 {
		opt.Workers = 1
	}

	start := time.Now()
	stats := &Stats{}

	if opt.LogsBase != "" {
		// logs/search/<DD.MM.YYYY>/search_<HH-MM-SS>
		dir, err := logsink.MakeRunDir(opt.LogsBase, module, start)
		if err != nil {
			return nil, err
		}
		if err := logsink.WriteHint(dir, opt.KeystoreHint); err != nil {
			return nil, fmt.Errorf("write hint: %w", err)
		}
		logCfg := opt.Log
		logCfg.FilePath = filepath.Join(dir, "app.log")
		logCfg.ConsoleOnly = false
		if err := logx.Init(logCfg); err != nil {
			return nil, fmt.Errorf("logx init for run failed: %w", err)
		}
		stats.RunDir = dir
	}
	app := logx.S().With("run_id", opt.RunID)

	prefixes := patterns.NewPrefixSet(opt.MinimalLead, opt.CaseSensitive)
	var c counters

	searchers := make([]*Searcher, opt.Workers)
	for i := range searchers {
		s, err := newSearcher(i, opt, prefixes, &c, start)
		if err != nil {
			return nil, err
		}
		s.runDir = stats.RunDir
		searchers[i] = s
	}

	app.Infow("search started",
		"workers", opt.Workers,
		"target_per_worker", opt.Target,
		"minimal_lead", opt.MinimalLead,
		"prefixes", len(prefixes.Prefixes()),
		"entropy_bits", 4*(len(opt.SecretPiece)+2*searchers[0].randomBytes),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	statusDone := make(chan struct{})
	go func() {
		defer close(statusDone)
		if opt.ProgressInterval <= 0 {
			<-ctx.Done()
			return
		}
		ticker := time.NewTicker(opt.ProgressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				elapsed := now.Sub(start)
				rate := 0.0
				n := c.attempts.Load()
				if elapsed > 0 {
					rate = float64(n) / elapsed.Seconds()
				}
				app.Infow("progress",
					"attempts", n,
					"found", c.found.Load(),
					"rate_addr_per_sec", fmt.Sprintf("%.2f", rate),
					"elapsed", humanDuration(elapsed),
				)
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range searchers {
		g.Go(func() error {
			n, err := s.Run(gctx)
			if err != nil {
				return err
			}
			app.Infow("worker done", "worker", s.id, "found", n)
			return nil
		})
	}
	err := g.Wait()
	cancel()
	<-statusDone

	stats.Found = c.found.Load()
	stats.Attempts = c.attempts.Load()
	stats.Elapsed = time.Since(start)

	app.Infow("stopped",
		"elapsed", humanDuration(stats.Elapsed),
		"attempts", stats.Attempts,
		"found", stats.Found,
	)
	return stats, err
}

// Searcher is one sequential search loop. It owns its random streams and
// its found count.
type Searcher struct {
	id          int
	secret      string
	randomBytes int
	prefixes    *patterns.PrefixSet
	random      io.Reader
	shuffle     entropy.Source
	derive      DeriveFunc
	sink        Sink
	done        func(found int) bool

	c           *counters
	start       time.Time
	runDir      string
	hideSecrets bool
}

// NewSearcher builds the single loop worker would run inside Run.
func NewSearcher(worker int, opt Options) (*Searcher, error) {
	if opt.Sink == nil {
		return nil, errors.New("nil sink")
	}
	prefixes := patterns.NewPrefixSet(opt.MinimalLead, opt.CaseSensitive)
	return newSearcher(worker, opt, prefixes, &counters{}, time.Now())
}

func newSearcher(worker int, opt Options, prefixes *patterns.PrefixSet, c *counters, start time.Time) (*Searcher, error) {
	sources := opt.Sources
	if sources == nil {
		sources = defaultSources
	}
	random, shuffle, err := sources(worker)
	if err != nil {
		return nil, fmt.Errorf("worker %d sources: %w", worker, err)
	}

	s := &Searcher{
		id:          worker,
		secret:      opt.SecretPiece,
		randomBytes: opt.RandomBytes,
		prefixes:    prefixes,
		random:      random,
		shuffle:     shuffle,
		derive:      opt.Derive,
		sink:        opt.Sink,
		done:        opt.Done,
		c:           c,
		start:       start,
		hideSecrets: opt.HideSecrets || opt.Encrypted,
	}
	if s.randomBytes <= 0 {
		s.randomBytes = defaultRandomBytes
	}
	if s.derive == nil {
		s.derive = mnemonic.FromEntropy
	}
	if s.done == nil {
		target := opt.Target
		s.done = func(found int) bool { return found >= target }
	}
	return s, nil
}

func defaultSources(int) (io.Reader, entropy.Source, error) {
	src, err := entropy.NewSource()
	if err != nil {
		return nil, nil, err
	}
	return crand.Reader, src, nil
}

func (s *Searcher) Attempts() uint64 { return s.c.attempts.Load() }

// Run loops until the termination predicate holds, ctx is cancelled, or a
// step fails. It returns how many wallets this searcher persisted.
func (s *Searcher) Run(ctx context.Context) (int, error) {
	found := 0
	for !s.done(found) {
		if err := ctx.Err(); err != nil {
			return found, err
		}

		w, err := s.attempt()
		n := s.c.attempts.Add(1)
		if err != nil {
			return found, fmt.Errorf("worker %d attempt %d: %w", s.id, n, err)
		}

		mr := s.prefixes.Match(w.Address)
		if mr == nil {
			continue
		}
		if err := s.sink.Save(w); err != nil {
			return found, &PersistenceError{Address: w.Address, Err: err}
		}
		found++
		s.c.found.Add(1)
		s.report(w, mr, n)
	}
	return found, nil
}

func (s *Searcher) attempt() (*mnemonic.Wallet, error) {
	chunk, err := entropy.RandomChunk(s.random, s.randomBytes)
	if err != nil {
		return nil, err
	}
	combined, err := entropy.Combine(s.secret, chunk, s.shuffle)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", mnemonic.ErrInvalidEntropy, err)
	}
	return s.derive(combined)
}

func (s *Searcher) report(w *mnemonic.Wallet, mr *patterns.MatchResult, attempt uint64) {
	elapsed := time.Since(s.start)
	kv := []any{
		"worker", s.id,
		"address", w.Address,
		"lead", mr.Lead,
		"attempt", attempt,
		"elapsed", humanDuration(elapsed),
	}
	if !s.hideSecrets {
		kv = append(kv, "mnemonic", w.Mnemonic, "private_key", crypto.PrivToHex(w.Priv))
	}
	logx.S().Infow("FOUND", kv...)

	if s.runDir != "" {
		line := fmt.Sprintf("address=%s lead=%d path=%s worker=%d attempt=%d", w.Address, mr.Lead, w.Path, s.id, attempt)
		if err := logsink.WriteMatch(s.runDir, line); err != nil {
			logx.S().Errorw("match log append failed", "address", w.Address, "err", err)
		}
	}
}

// ------------------------------- helpers ------------------------------------

func humanDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
}
