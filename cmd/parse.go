package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pable/go-topstats/internal/engine"
	"github.com/pable/go-topstats/internal/metrics"
	"github.com/pable/go-topstats/internal/parser"
	"github.com/pable/go-topstats/internal/report"
	"github.com/pable/go-topstats/internal/storage"
)

var (
	parseJSONOut   string
	parseXLSXOut   string
	parseNoStore   bool
	parseForce     bool
	parseMetrics   string
	parseWorkers   int
	parseShowStats []string
)

var parseCmd = &cobra.Command{
	Use:   "parse <file|dir>...",
	Short: "Compute top stats for a batch of Elite Insights reports",
	Long: `Read every encounter report given (directories are expanded to their
.json, .json.gz and .json.zst files), process them in file-name order and
print the award boards. The finished report is stored in the database unless
--no-store is given; a batch whose files were stored before is shown from the
database instead of recomputed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVar(&parseJSONOut, "json", "", "write the report as JSON to this path")
	parseCmd.Flags().StringVar(&parseXLSXOut, "xlsx", "", "write the report as an xlsx workbook to this path")
	parseCmd.Flags().BoolVar(&parseNoStore, "no-store", false, "do not store the report in the database")
	parseCmd.Flags().BoolVar(&parseForce, "force", false, "recompute even if the batch is already stored")
	parseCmd.Flags().StringVar(&parseMetrics, "metrics-file", "", "write batch metrics as a Prometheus textfile to this path")
	parseCmd.Flags().IntVar(&parseWorkers, "workers", 0, "files decoded in parallel (default: number of CPUs)")
	parseCmd.Flags().StringSliceVar(&parseShowStats, "stat", nil, "only print the award boards of these stats")
}

func runParse(cmd *cobra.Command, args []string) error {
	paths, err := parser.CollectPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no encounter files found in %v", args)
	}

	log.Info("Loading encounters", "files", len(paths))
	files, err := parser.LoadFiles(cmd.Context(), paths, parseWorkers)
	if err != nil {
		return fmt.Errorf("load encounters: %w", err)
	}

	var db *storage.DB
	if !parseNoStore {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return fmt.Errorf("create db dir: %w", err)
		}
		db, err = storage.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer db.Close()

		if !parseForce {
			hash, err := engine.InputHash(cfg, files)
			if err != nil {
				return err
			}
			stored, err := db.GetRunByHash(hash)
			if err != nil {
				return fmt.Errorf("check run: %w", err)
			}
			if stored != nil {
				fmt.Fprintf(os.Stdout, "Batch already stored as run %s, showing cached results.\n", report.ShortID(stored.ID))
				r, err := db.LoadReport(stored.ID)
				if err != nil {
					return fmt.Errorf("load run: %w", err)
				}
				return emit(r)
			}
		}
	}

	var rec *metrics.Recorder
	if parseMetrics != "" {
		rec = metrics.NewRecorder()
	}

	r, err := engine.Run(cfg, files, rec)
	switch {
	case errors.Is(err, engine.ErrEmptyBatch):
		log.Warn("No fight passed admission, nothing to rank", "fights", len(files))
	case err != nil:
		return err
	case db != nil:
		if err := db.InsertRun(r, time.Now()); err != nil {
			return fmt.Errorf("store run: %w", err)
		}
		log.Info("Run stored", "id", r.ID, "db", dbPath)
	}

	if parseMetrics != "" {
		if err := rec.WriteTextfile(parseMetrics); err != nil {
			return err
		}
	}
	return emit(r)
}

// emit prints r and writes the requested output files.
func emit(r *report.Report) error {
	printReport(r, parseShowStats)
	if parseJSONOut != "" {
		if err := report.WriteJSONFile(parseJSONOut, r); err != nil {
			return err
		}
		log.Info("JSON report written", "path", parseJSONOut)
	}
	if parseXLSXOut != "" {
		if err := report.WriteWorkbookFile(parseXLSXOut, cfg, r); err != nil {
			return err
		}
		log.Info("Workbook written", "path", parseXLSXOut)
	}
	return nil
}
