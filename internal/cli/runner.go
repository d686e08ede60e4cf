package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ethaddr/internal/generator"
	"ethaddr/internal/keystore"
	"ethaddr/internal/ops/verify"
	"ethaddr/pkg/appcfg"
	"ethaddr/pkg/config"
	"ethaddr/pkg/logx"
)

type Runner struct {
	EnvFile   string
	AppConfig string
	Password  string

	app *appcfg.Config
}

func NewRunner() *Runner {
	return &Runner{EnvFile: ".env", AppConfig: "configs/app.yaml"}
}

// Command builds the root command. Without a subcommand it runs the search.
func (r *Runner) Command() *cobra.Command {
	root := &cobra.Command{
		Use:               "ethaddr",
		Short:             "Search HD wallets whose address starts with a run of zeros",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(*cobra.Command, []string) error { return r.initLogging() },
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := withInterrupt(cmd.Context())
			defer stop()
			return r.search(ctx)
		},
	}
	root.PersistentFlags().StringVar(&r.EnvFile, "env", r.EnvFile, "dotenv file with search settings (optional)")
	root.PersistentFlags().StringVar(&r.AppConfig, "config", r.AppConfig, "application config yaml")

	verifyCmd := &cobra.Command{
		Use:   "verify FILE...",
		Short: "Re-derive saved wallet files and check them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := withInterrupt(cmd.Context())
			defer stop()
			_, err := verify.Files(ctx, verify.Options{Files: args, Password: r.Password})
			return err
		},
	}
	verifyCmd.Flags().StringVar(&r.Password, "password", "", "keystore password for encrypted records")
	root.AddCommand(verifyCmd)

	return root
}

func (r *Runner) initLogging() error {
	appConf, err := appcfg.Load(r.AppConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config: %v (use defaults)\n", err)
		appConf = appcfg.Default()
	}
	r.app = appConf

	return logx.Init(r.logConfig())
}

func (r *Runner) logConfig() logx.Config {
	return logx.Config{
		Level:                r.app.LogLevel,
		ConsoleOnly:          true,
		HideSecretsInConsole: r.app.HideSecretsInConsole,
		MaxSizeMB:            r.app.LogMaxSizeMB,
		MaxBackups:           r.app.LogMaxBackups,
	}
}

func (r *Runner) search(ctx context.Context) error {
	cfg, err := config.Load(r.EnvFile)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	sink, err := keystore.NewFileSink(cfg.AddressPath, runID, cfg.KeystorePassword)
	if err != nil {
		return fmt.Errorf("prepare %s: %w", config.AddressPathKey, err)
	}

	logx.S().Infow("search configured",
		"run_id", runID,
		"address_path", cfg.AddressPath,
		"minimal_lead", cfg.MinimalLead,
		"minimal_addr", cfg.MinimalAddr,
		"workers", cfg.Workers,
		"case_sensitive", cfg.CaseSensitive,
		"encrypted", cfg.KeystorePassword != "",
	)

	stats, err := generator.Run(ctx, generator.Options{
		SecretPiece:      cfg.SecretPiece,
		MinimalLead:      cfg.MinimalLead,
		CaseSensitive:    cfg.CaseSensitive,
		Target:           cfg.MinimalAddr,
		Workers:          cfg.Workers,
		RandomBytes:      cfg.RandomBytes,
		Sink:             sink,
		RunID:            runID,
		LogsBase:         r.app.LogsBase,
		Log:              r.logConfig(),
		KeystoreHint:     cfg.KeystoreHint,
		ProgressInterval: cfg.ProgressInterval,
		HideSecrets:      r.app.HideSecretsInConsole,
		Encrypted:        cfg.KeystorePassword != "",
	})
	if stats != nil && errors.Is(err, context.Canceled) {
		logx.S().Warnw("search interrupted", "found", stats.Found, "attempts", stats.Attempts)
	}
	if err != nil {
		return err
	}
	logx.S().Infow("search done", "found", stats.Found, "run_dir", stats.RunDir)
	return nil
}

// withInterrupt cancels on SIGINT/SIGTERM. stop releases the signal
// registration and must be called when the command returns.
func withInterrupt(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
