package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aradsms/vnumber_services/internal/number_discovery_service/app"
	"github.com/aradsms/vnumber_services/internal/number_discovery_service/provider"
	"github.com/aradsms/vnumber_services/internal/platform/config"
	"github.com/aradsms/vnumber_services/internal/platform/logger"
)

const cliName = "numberctl"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	return newRootCmd(viper.New()).ExecuteContext(context.Background())
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           cliName,
		Short:         "Find a live free virtual number and read its inbox",
		Long:          helpText,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = v.BindPFlag("LOG_LEVEL", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().String("base-url", "", "OnlineSim base URL")
	_ = v.BindPFlag("ONLINESIM_BASE_URL", rootCmd.PersistentFlags().Lookup("base-url"))

	rootCmd.PersistentFlags().String("api-key", "", "OnlineSim API key")
	_ = v.BindPFlag("ONLINESIM_API_KEY", rootCmd.PersistentFlags().Lookup("api-key"))

	rootCmd.AddCommand(newStartCmd())
	rootCmd.AddCommand(newNumberCmd(v))
	rootCmd.AddCommand(newInboxCmd(v))

	return rootCmd
}

// clients is what a command needs to talk to the provider.
type clients struct {
	cfg    *config.Config
	engine *app.DiscoveryEngine
	inbox  *app.InboxReader
}

func buildClients(cmd *cobra.Command, v *viper.Viper) (*clients, error) {
	cfg, err := config.LoadFrom(v, cliName)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.NewWithWriter(cfg.LogLevel, cmd.ErrOrStderr()).With("service", cliName)
	onlineSim := provider.NewOnlineSimProvider(log, provider.OnlineSimConfigFrom(cfg), &http.Client{})
	inbox := app.NewInboxReader(onlineSim, log)

	return &clients{
		cfg:    cfg,
		engine: app.NewDiscoveryEngine(onlineSim, inbox, log),
		inbox:  inbox,
	}, nil
}
