package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/aaronzipp/impostor/internal/store"
)

const (
	storeMemory   = "memory"
	storeFirebase = "firebase"
	storePostgres = "postgres"
)

type Config struct {
	baseURL             string
	bind                string
	databaseURL         string
	firebaseCredentials string
	firebaseDatabaseURL string
	pollInterval        time.Duration
	port                int
	store               string
	strictCustomWord    bool
	verbose             bool
	wordBank            string
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	switch c.store {
	case storeMemory:
	case storeFirebase:
		if c.firebaseDatabaseURL == "" {
			return errors.New("--firebase-database-url is required with --store firebase")
		}
	case storePostgres:
		if c.databaseURL == "" {
			return errors.New("--database-url is required with --store postgres")
		}
	default:
		return fmt.Errorf("invalid store %q (must be one of memory, firebase, postgres)", c.store)
	}
	if c.pollInterval <= 0 {
		return fmt.Errorf("invalid poll interval: %s", c.pollInterval)
	}
	if c.baseURL != "" && !strings.HasPrefix(c.baseURL, "http://") && !strings.HasPrefix(c.baseURL, "https://") {
		return fmt.Errorf("invalid base url (must start with http:// or https://): %s", c.baseURL)
	}
	return nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("IMPOSTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "impostor",
		Short:         "Lobby and round server for a word-based impostor party game.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return Serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.baseURL, "base-url", "", "public origin used in join links and QR codes (env: IMPOSTOR_BASE_URL)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: IMPOSTOR_BIND)")
	fs.StringVar(&cfg.databaseURL, "database-url", "", "postgres connection string (env: IMPOSTOR_DATABASE_URL)")
	fs.StringVar(&cfg.firebaseCredentials, "firebase-credentials", "", "path to a firebase service account file (env: IMPOSTOR_FIREBASE_CREDENTIALS)")
	fs.StringVar(&cfg.firebaseDatabaseURL, "firebase-database-url", "", "firebase realtime database url (env: IMPOSTOR_FIREBASE_DATABASE_URL)")
	fs.DurationVar(&cfg.pollInterval, "poll-interval", store.DefaultPollInterval, "how often firebase subscriptions check for changes (env: IMPOSTOR_POLL_INTERVAL)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: IMPOSTOR_PORT)")
	fs.StringVar(&cfg.store, "store", storeMemory, "session store: memory, firebase or postgres (env: IMPOSTOR_STORE)")
	fs.BoolVar(&cfg.strictCustomWord, "strict-custom-word", true, "refuse to start custom rounds without a word (env: IMPOSTOR_STRICT_CUSTOM_WORD)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: IMPOSTOR_VERBOSE)")
	fs.StringVar(&cfg.wordBank, "word-bank", "", "path to a word bank json file, built-in categories when empty (env: IMPOSTOR_WORD_BANK)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("impostor v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
