package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/juney329/mancat-v2/cmd/mancat/app"
)

var (
	logLevel slog.LevelVar
	logger   = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &logLevel}))

	configPath string
	dataDir    string
)

var rootCmd = &cobra.Command{
	Use:           "mancat",
	Short:         "Spectral sweep ingestion and waterfall serving",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// loadConfig resolves the effective configuration: file, then flag
// overrides.
func loadConfig() (*app.Config, error) {
	config, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		config.Store.DataDir = dataDir
	}
	logLevel.Set(config.LogLevel())
	return config, nil
}

// optFloat returns the flag's value as a pointer, or nil when the flag was
// not given. Window bounds distinguish "unset" from zero.
func optFloat(cmd *cobra.Command, name string, v *float64) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return v
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Artifact store directory (overrides config)")

	var (
		listBands bool
		dbMin     float64
		dbMax     float64
		scale     int
	)
	ingestCmd := &cobra.Command{
		Use:   "ingest [flags] input...",
		Short: "Merge capture files and publish per-band artifact sets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db-min") {
				config.Ingest.Quant.DBMin = dbMin
			}
			if cmd.Flags().Changed("db-max") {
				config.Ingest.Quant.DBMax = dbMax
			}
			if cmd.Flags().Changed("scale") {
				config.Ingest.Quant.Scale = scale
			}
			if err := config.Ingest.Quant.Validate(); err != nil {
				return err
			}
			return app.RunIngest(cmd.Context(), config, logger, app.IngestOptions{
				Inputs:    args,
				ListBands: listBands,
			})
		},
	}
	ingestCmd.Flags().BoolVar(&listBands, "list-bands", false, "List discovered bands without writing artifacts")
	ingestCmd.Flags().Float64Var(&dbMin, "db-min", -200, "Quantization floor in dB")
	ingestCmd.Flags().Float64Var(&dbMax, "db-max", 0, "Quantization ceiling in dB")
	ingestCmd.Flags().IntVar(&scale, "scale", 100, "Quantization codes per dB")
	rootCmd.AddCommand(ingestCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "bands",
		Short: "List published bands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}
			return app.RunBands(cmd.Context(), config, logger, os.Stdout)
		},
	})

	var (
		tileF0, tileF1 float64
		tileT0, tileT1 float64
		maxWidth       int
		maxHeight      int
		annotate       bool
		output         string
	)
	tileCmd := &cobra.Command{
		Use:   "tile [flags] band",
		Short: "Extract a waterfall tile as PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}
			return app.RunTile(cmd.Context(), config, logger, app.TileOptions{
				Band:      args[0],
				F0:        optFloat(cmd, "f0", &tileF0),
				F1:        optFloat(cmd, "f1", &tileF1),
				T0:        optFloat(cmd, "t0", &tileT0),
				T1:        optFloat(cmd, "t1", &tileT1),
				MaxWidth:  maxWidth,
				MaxHeight: maxHeight,
				Annotate:  annotate,
				Output:    output,
			})
		},
	}
	tileCmd.Flags().Float64Var(&tileF0, "f0", 0, "Window start frequency in Hz")
	tileCmd.Flags().Float64Var(&tileF1, "f1", 0, "Window stop frequency in Hz")
	tileCmd.Flags().Float64Var(&tileT0, "t0", 0, "Window start time, seconds relative to capture start")
	tileCmd.Flags().Float64Var(&tileT1, "t1", 0, "Window stop time, seconds relative to capture start")
	tileCmd.Flags().IntVar(&maxWidth, "max-width", 0, "Tile column cap (0 uses the configured limit)")
	tileCmd.Flags().IntVar(&maxHeight, "max-height", 0, "Tile row cap (0 uses the configured limit)")
	tileCmd.Flags().BoolVar(&annotate, "annotate", false, "Draw frequency and time scales around the tile")
	tileCmd.Flags().StringVarP(&output, "output", "o", "tile.png", "Output PNG path")
	rootCmd.AddCommand(tileCmd)

	var (
		curve            string
		peaksF0, peaksF1 float64
		height           float64
		prominence       float64
		distance         int
	)
	peaksCmd := &cobra.Command{
		Use:   "peaks [flags] band",
		Short: "Extract peaks from a band's summary curve",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}
			return app.RunPeaks(cmd.Context(), config, logger, app.PeaksOptions{
				Band:       args[0],
				Curve:      curve,
				F0:         optFloat(cmd, "f0", &peaksF0),
				F1:         optFloat(cmd, "f1", &peaksF1),
				Height:     optFloat(cmd, "height", &height),
				Prominence: optFloat(cmd, "prominence", &prominence),
				Distance:   distance,
			}, os.Stdout)
		},
	}
	peaksCmd.Flags().StringVar(&curve, "curve", "max", "Summary curve to search (min, avg or max)")
	peaksCmd.Flags().Float64Var(&peaksF0, "f0", 0, "Window start frequency in Hz")
	peaksCmd.Flags().Float64Var(&peaksF1, "f1", 0, "Window stop frequency in Hz")
	peaksCmd.Flags().Float64Var(&height, "height", 0, "Minimum peak height in dB")
	peaksCmd.Flags().Float64Var(&prominence, "prominence", 0, "Minimum peak prominence in dB")
	peaksCmd.Flags().IntVar(&distance, "distance", 1, "Minimum distance between peaks in samples")
	rootCmd.AddCommand(peaksCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)

		cancel()
		os.Exit(1)
	}
}
