package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"price_service/internal/config"
	"price_service/internal/core"
	"price_service/internal/domain/repository"
	"price_service/internal/infrastructure/download"
)

const dateFormat = "2006-01-02"

var (
	configPath      string
	credentialsPath string
)

func main() {
	root := &cobra.Command{
		Use:           "price_service",
		Short:         "Estimate UK residential property sale prices",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the configuration file")
	root.PersistentFlags().StringVar(&credentialsPath, "credentials", "credentials.yaml", "path to the record store credentials file")

	root.AddCommand(predictCmd(), downloadCmd(), initDBCmd(), ingestCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *repository.PriceStoreRepository, zerolog.Logger, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, nil, zerolog.Nop(), err
	}
	logger := newLogger(cfg.LogLevel)

	cred, err := config.ReadCredentials(credentialsPath)
	if err != nil {
		return nil, nil, logger, err
	}
	store, err := repository.NewPriceStoreRepository(cfg.DSN(cred))
	if err != nil {
		return nil, nil, logger, err
	}
	return cfg, store, logger, nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(writer).Level(lvl).With().Timestamp().Logger()
}

func predictCmd() *cobra.Command {
	var (
		lat, lon     float64
		dateStr      string
		propertyType string
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict a sale price for a property",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := time.Parse(dateFormat, dateStr)
			if err != nil {
				return fmt.Errorf("parse --date: %w", err)
			}

			cfg, store, logger, err := setup()
			if err != nil {
				return err
			}
			defer store.Close()

			pois := repository.NewOverpassRepository(cfg.OverpassURL, 60*time.Second)
			service := core.NewPredictionService(store, pois, core.DefaultPriceSchema(), core.PipelineConfig{
				TestSize:     cfg.TestSize,
				TrainingBBox: cfg.TrainingBBox,
				Regression:   core.DefaultRegressionConfig(),
			}, logger)

			price, err := service.PredictPrice(cmd.Context(), lat, lon, date, propertyType)
			if err != nil {
				return err
			}
			fmt.Printf("%.2f\n", price)
			return nil
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude of the property")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude of the property")
	cmd.Flags().StringVar(&dateStr, "date", "", "transaction date, YYYY-MM-DD")
	cmd.Flags().StringVar(&propertyType, "property-type", "", "property type: F, S, D, T or O")
	cmd.MarkFlagRequired("lat")
	cmd.MarkFlagRequired("lon")
	cmd.MarkFlagRequired("date")
	cmd.MarkFlagRequired("property-type")
	return cmd
}

func downloadCmd() *cobra.Command {
	var startYear, endYear int
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download and cache the price-paid and postcode source files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithEnv(configPath)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.LogLevel)
			client := download.NewClient(cfg.DataDirectory, 10*time.Minute, logger)

			for year := startYear; year <= endYear; year++ {
				path, err := client.PricePaid(cmd.Context(), year)
				if err != nil {
					return err
				}
				logger.Info().Str("path", path).Int("year", year).Msg("price-paid file ready")
			}
			path, err := client.PostcodeCoordinates(cmd.Context())
			if err != nil {
				return err
			}
			logger.Info().Str("path", path).Msg("postcode file ready")
			return nil
		},
	}
	cmd.Flags().IntVar(&startYear, "start-year", 2018, "first price-paid year to download")
	cmd.Flags().IntVar(&endYear, "end-year", 2022, "last price-paid year to download")
	return cmd
}

func initDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the record store tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, logger, err := setup()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.InitSchema(cmd.Context()); err != nil {
				return err
			}
			logger.Info().Msg("record store schema ready")
			return nil
		},
	}
}

func ingestCmd() *cobra.Command {
	var pricesPath, postcodesPath string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Bulk-load downloaded CSV files into the record store",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, logger, err := setup()
			if err != nil {
				return err
			}
			defer store.Close()

			if pricesPath != "" {
				n, err := store.LoadPricePaidCSV(cmd.Context(), pricesPath)
				if err != nil {
					return err
				}
				logger.Info().Int64("rows", n).Str("path", pricesPath).Msg("loaded price-paid rows")
			}
			if postcodesPath != "" {
				n, err := store.LoadPostcodeCSV(cmd.Context(), postcodesPath)
				if err != nil {
					return err
				}
				logger.Info().Int64("rows", n).Str("path", postcodesPath).Msg("loaded postcode rows")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pricesPath, "prices", "", "price-paid CSV to load")
	cmd.Flags().StringVar(&postcodesPath, "postcodes", "", "postcode coordinates CSV to load")
	return cmd
}
