package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/foreman/internal/app"
	"github.com/five82/foreman/internal/buildservice"
	"github.com/five82/foreman/internal/config"
	"github.com/five82/foreman/internal/session"
)

// Version information - set at build time via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath string
	apiURL     string
	apiUser    string
	refresh    string
)

// newService builds the client the headless commands talk to.
var newService = func(cfg config.Config) (buildservice.Service, error) {
	return session.DefaultFactory(app.ClientOptions(cfg))
}

var rootCmd = &cobra.Command{
	Use:   "foreman",
	Short: "Terminal client for a build service",
	Long: `foreman watches projects on an Open Build Service style API.

Run without a subcommand to open the terminal UI: build results per
package and target, streamed build logs, workers and submit requests.
The subcommands print the same data for scripts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return app.Run(cmd.Context(), app.Options{Config: cfg})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "foreman %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	flags.StringVar(&apiURL, "api-url", "", "build service API URL")
	flags.StringVar(&apiUser, "user", "", "account name for authentication and the watchlist")
	flags.StringVar(&refresh, "refresh", "", "refresh interval, e.g. 10s")
}

// loadConfig reads the config file and applies flags given on the command
// line over it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	loader := config.NewLoader()
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		loader.SetOverride("api_url", apiURL)
	}
	if flags.Changed("user") {
		loader.SetOverride("user", apiUser)
	}
	if flags.Changed("refresh") {
		loader.SetOverride("refresh_interval", refresh)
	}
	cfg, err := loader.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// connect loads the config and builds a service client.
func connect(cmd *cobra.Command) (config.Config, buildservice.Service, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return config.Config{}, nil, err
	}
	svc, err := newService(cfg)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("connect %s: %w", cfg.APIURL, err)
	}
	return cfg, svc, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx available to subcommands.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersionInfo sets version information from build flags
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
