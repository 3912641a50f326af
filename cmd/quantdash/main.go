// Command quantdash ingests quantms search-engine exports into SQLite and
// serves an interactive dashboard over the joined results.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/omicsflow/quantdash/internal/config"
	"github.com/omicsflow/quantdash/internal/convert"
	"github.com/omicsflow/quantdash/internal/dashboard"
	"github.com/omicsflow/quantdash/internal/database"
	"github.com/omicsflow/quantdash/internal/ingest"
	"github.com/omicsflow/quantdash/internal/migrations"
)

var (
	flagConfig  string
	flagDir     string
	flagDB      string
	flagAddr    string
	flagVerbose bool
)

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.LoadFile(flagConfig)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("dir") {
		cfg.DataDir = flagDir
	}
	if cmd.Flags().Changed("db") {
		cfg.DBPath = flagDB
	}
	if cmd.Flags().Changed("addr") {
		cfg.HTTPAddr = flagAddr
	}
	return cfg, nil
}

func main() {
	root := &cobra.Command{
		Use:           "quantdash",
		Short:         "proteomics search-result ETL and dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			if flagVerbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to YAML config file")
	root.PersistentFlags().StringVar(&flagDir, "dir", ".", "data directory")
	root.PersistentFlags().StringVar(&flagDB, "db", "quantms.db", "SQLite database path")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	convertCmd := &cobra.Command{
		Use:   "convert",
		Short: "rewrite parquet exports in the data directory as TSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			res, err := convert.Dir(cmd.Context(), cfg.DataDir)
			if err != nil {
				return err
			}
			logrus.WithFields(logrus.Fields{
				"converted": res.Converted,
				"failed":    res.Failed,
			}).Info("all files converted")
			return nil
		},
	}

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "load TSV exports into SQLite and build combined_score",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			db, err := database.NewDB(cfg.DBPath, cfg.DebugSQL)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			if err := migrations.RunMigrations(ctx, db); err != nil {
				return err
			}
			run, err := ingest.NewLoader(db, cfg.RTTolerance).Run(ctx, cfg.DataDir)
			if err != nil {
				return err
			}
			logrus.WithFields(logrus.Fields{
				"run_id":        run.RunID,
				"status":        run.Status,
				"files":         run.FilesProcessed,
				"skipped":       run.FilesSkipped,
				"combined_rows": run.CombinedRows,
				"errors":        run.ErrorsCount,
			}).Info("processing complete")
			return nil
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the interactive dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			db, err := database.NewDB(cfg.DBPath, cfg.DebugSQL)
			if err != nil {
				return err
			}
			defer db.Close()
			return dashboard.NewServer(db, cfg).ListenAndServe(cfg.HTTPAddr)
		},
	}
	serveCmd.Flags().StringVar(&flagAddr, "addr", ":8051", "HTTP listen address")

	root.AddCommand(convertCmd, loadCmd, serveCmd)

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Error("command failed")
		os.Exit(1)
	}
}
