package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/claimstream/internal/logging"
	"github.com/ppiankov/claimstream/internal/model"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "claimstream",
	Short: "Claimstream - async fact-check runs with live event streaming",
	Long: `Claimstream verifies factual claims in submitted text and streams
the verification as it happens.

A submitted answer is split into sentences, checkworthy content is
selected and disambiguated, candidate claims are extracted, validated,
and verified against retrieved evidence. Every step is appended to the
run's event log and relayed to connected clients over server-sent
events, so observers watch the check unfold instead of waiting for the
final report.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for Claimstream.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("claimstream v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.claimstream/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.claimstream")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match CLAIMSTREAM_*
	viper.SetEnvPrefix("CLAIMSTREAM")
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}

	logging.Init(verbose)
}

// loadConfig resolves the effective configuration: built-in defaults
// overridden by config file and environment values.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()

	set := func(key string, assign func()) {
		if viper.IsSet(key) {
			assign()
		}
	}

	set("server.addr", func() { cfg.Server.Addr = viper.GetString("server.addr") })
	set("server.max_input_bytes", func() { cfg.Server.MaxInputBytes = viper.GetInt64("server.max_input_bytes") })
	set("event_log.ttl", func() { cfg.EventLog.TTL = viper.GetDuration("event_log.ttl") })
	set("event_log.cleanup_interval", func() { cfg.EventLog.CleanupInterval = viper.GetDuration("event_log.cleanup_interval") })
	set("event_log.poll_interval", func() { cfg.EventLog.PollInterval = viper.GetDuration("event_log.poll_interval") })
	set("store.path", func() { cfg.Store.Path = viper.GetString("store.path") })
	set("http.timeout", func() { cfg.HTTP.Timeout = viper.GetDuration("http.timeout") })
	set("http.user_agent", func() { cfg.HTTP.UserAgent = viper.GetString("http.user_agent") })
	set("http.max_body_bytes", func() { cfg.HTTP.MaxBodyBytes = viper.GetInt64("http.max_body_bytes") })
	set("concurrency.verify_workers", func() { cfg.Concurrency.VerifyWorkers = viper.GetInt("concurrency.verify_workers") })
	set("concurrency.source_rps", func() { cfg.Concurrency.SourceRPS = viper.GetFloat64("concurrency.source_rps") })
	set("concurrency.source_burst", func() { cfg.Concurrency.SourceBurst = viper.GetInt("concurrency.source_burst") })
	set("concurrency.robots_respect", func() { cfg.Concurrency.RobotsRespect = viper.GetBool("concurrency.robots_respect") })
	set("llm.provider", func() { cfg.LLM.Provider = viper.GetString("llm.provider") })
	set("llm.model", func() { cfg.LLM.Model = viper.GetString("llm.model") })
	set("llm.base_url", func() { cfg.LLM.BaseURL = viper.GetString("llm.base_url") })
	set("llm.max_tokens", func() { cfg.LLM.MaxTokens = viper.GetInt("llm.max_tokens") })

	cfg.Output.Verbose = verbose
	resolveAPIKey(cfg)
	return cfg
}

// resolveAPIKey pulls provider credentials from the environment. Keys
// are never read from the config file.
func resolveAPIKey(cfg *model.Config) {
	switch cfg.LLM.Provider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case "ollama":
		if base := os.Getenv("OLLAMA_BASE_URL"); base != "" {
			cfg.LLM.BaseURL = base
		}
	}
}
