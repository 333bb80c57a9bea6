package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/azure"
	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/config"
	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/export"
	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/services/ai"
	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/services/analysis"
	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/store/postgres"
)

var (
	cfgPath       string
	profile       string
	resourceGroup string
	format        string
	outputPath    string
	verbose       bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vm-evolver",
		Short: "Analyze a subscription's VMs and recommend rightsizing actions",
		RunE:  runAnalyze,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to a config file (optional)")
	rootCmd.Flags().StringVarP(&profile, "profile", "p", "", "Azure config profile to use")
	rootCmd.Flags().StringVarP(&resourceGroup, "resource-group", "g", "", "Limit analysis to one resource group")
	rootCmd.Flags().StringVarP(&format, "format", "f", "json", "Report format: json, csv, or html")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the report to a file instead of stdout")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()
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

	opts := analysis.OptionsFromSettings(settings)
	opts.ResourceGroup = resourceGroup

	engine := analysis.NewEngine(client, client, azure.NewRetailClient(), client, opts).
		WithAdvisor(client)

	if settings.AIEnabled && settings.AIAPIKey != "" {
		provider := ai.NewAnthropicProvider(settings.AIAPIKey, settings.AIModel, settings.AIBaseURL)
		engine = engine.WithRecommender(ai.NewRecommender(provider, settings.AIMaxParallel))
	}

	if settings.PostgresDSN != "" {
		store, err := postgres.New(ctx, settings.PostgresDSN)
		if err != nil {
			return fmt.Errorf("failed to connect report store: %w", err)
		}
		defer store.Close()
		engine = engine.WithStore(store)
	}

	logger.Info().Str("subscription", settings.SubscriptionID).Msg("starting analysis")
	report, err := engine.AnalyzeSubscription(ctx)
	if err != nil {
		return err
	}
	logger.Info().
		Int("analyzed", report.AnalyzedVMs).
		Float64("potential_savings", report.PotentialSavings).
		Msg("analysis complete")

	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	return export.NewReporter(out).Handle(report, export.Format(format))
}
