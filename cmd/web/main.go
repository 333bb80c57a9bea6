package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/azure"
	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/config"
	handlers "github.com/jamelachahbar/skaelvox-vm-evolver/pkg/handlers/analysis"
	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/server"
	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/services/ai"
	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/services/analysis"
	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/store/postgres"
)

var (
	cfgPath string
	profile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "web",
		Short: "Start the rightsizing web API",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to a config file (optional)")
	rootCmd.Flags().StringVarP(&profile, "profile", "p", "", "Azure config profile to use")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	settings, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	azConfig, err := azure.LoadConfig(profile)
	if err != nil {
		return fmt.Errorf("failed to load Azure config: %w", err)
	}
	settings.SubscriptionID = azConfig.SubscriptionID

	client, err := azure.NewClient(azConfig.SubscriptionID, azConfig.Credentials)
	if err != nil {
		return fmt.Errorf("failed to create Azure client: %w", err)
	}

	engine := analysis.NewEngine(client, client, azure.NewRetailClient(), client,
		analysis.OptionsFromSettings(settings)).WithAdvisor(client)

	if settings.AIEnabled && settings.AIAPIKey != "" {
		provider := ai.NewAnthropicProvider(settings.AIAPIKey, settings.AIModel, settings.AIBaseURL)
		engine = engine.WithRecommender(ai.NewRecommender(provider, settings.AIMaxParallel))
	}

	var store handlers.ReportStore
	if settings.PostgresDSN != "" {
		pg, err := postgres.New(ctx, settings.PostgresDSN)
		if err != nil {
			return fmt.Errorf("failed to connect report store: %w", err)
		}
		defer pg.Close()
		engine = engine.WithStore(pg)
		store = pg
	}

	api := server.NewWebAPI(server.Config{
		Addr: settings.ListenAddr,
		Dependencies: server.Dependencies{
			Runner: engine,
			Store:  store,
			Logger: logger,
		},
	})
	logger.Info().Str("addr", settings.ListenAddr).Str("subscription", settings.SubscriptionID).
		Msg("web API configured")
	return api.Start()
}
