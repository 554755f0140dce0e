package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/ababil/packages/core/config"
	"github.com/abdul-hamid-achik/ababil/packages/output"
	"github.com/abdul-hamid-achik/ababil/packages/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configFlag  string
	dataDirFlag string
	envFlag     string
	verboseFlag bool
	noColorFlag bool
	outputFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "ababil",
	Short: "A terminal API client with environments, collections and auth.",
	Long: `ababil composes and sends HTTP requests the way a desktop API client does:
{{variables}} come from the active environment, auth is inherited from the
request's collection, and tokens found in responses can be reused by the
next request.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(ExitUsageError)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFlag, "config", getEnvString("ABABIL_CONFIG", ""), "Path to config file (env: ABABIL_CONFIG)")
	pf.StringVar(&dataDirFlag, "data-dir", getEnvString("ABABIL_DATA_DIR", ""), "Directory holding the ababil database (env: ABABIL_DATA_DIR)")
	pf.StringVarP(&envFlag, "env", "e", getEnvString("ABABIL_ENV", ""), "Environment name or id, overrides the active one (env: ABABIL_ENV)")
	pf.BoolVarP(&verboseFlag, "verbose", "v", getEnvBool("ABABIL_VERBOSE", false), "Show headers, bodies and warnings (env: ABABIL_VERBOSE)")
	pf.BoolVar(&noColorFlag, "no-color", getEnvBool("ABABIL_NO_COLOR", false), "Disable colored output (env: ABABIL_NO_COLOR)")
	pf.StringVarP(&outputFlag, "output", "o", getEnvString("ABABIL_OUTPUT", "console"), "Output format: console, json (env: ABABIL_OUTPUT)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(collectionCmd)
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(validateCmd)
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// session bundles what most commands need: the merged config, the open
// store and a console for human-readable output.
type session struct {
	cfg     *config.Config
	store   *storage.Store
	console *output.ConsoleFormatter
}

// loadConfig reads the config file and applies the persistent flags on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, withExitCode(ExitConfigError, fmt.Errorf("loading config: %w", err))
	}
	if dataDirFlag != "" {
		cfg.DataDir = dataDirFlag
	}
	if verboseFlag {
		cfg.Verbose = config.BoolPtr(true)
	}
	if noColorFlag {
		cfg.NoColor = config.BoolPtr(true)
	}
	return cfg, nil
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := storage.OpenDir(cfg.DataDir)
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}
	return &session{
		cfg:   cfg,
		store: store,
		console: output.NewConsoleFormatter(
			output.WithWriter(cmd.OutOrStdout()),
			output.WithVerbose(cfg.GetVerbose()),
			output.WithNoColor(cfg.GetNoColor()),
		),
	}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// withSession opens a session for the duration of fn.
func withSession(fn func(cmd *cobra.Command, args []string, s *session) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		return fn(cmd, args, s)
	}
}
