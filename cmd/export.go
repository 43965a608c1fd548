package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pable/go-topstats/internal/report"
	"github.com/pable/go-topstats/internal/storage"
)

var (
	exportJSON string
	exportXLSX string
)

// exportCmd re-renders a stored run as JSON and/or an xlsx workbook.
var exportCmd = &cobra.Command{
	Use:   "export <run-id-prefix>",
	Short: "Export a stored run as JSON or an xlsx workbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportJSON, "json", "", "write the report as JSON to this path")
	exportCmd.Flags().StringVar(&exportXLSX, "xlsx", "", "write the report as an xlsx workbook to this path")
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportJSON == "" && exportXLSX == "" {
		return fmt.Errorf("nothing to export: pass --json and/or --xlsx")
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	r, err := loadRun(db, args[0])
	if err != nil || r == nil {
		return err
	}
	if exportJSON != "" {
		if err := report.WriteJSONFile(exportJSON, r); err != nil {
			return err
		}
		log.Info("JSON report written", "run", r.ID, "path", exportJSON)
	}
	if exportXLSX != "" {
		if err := report.WriteWorkbookFile(exportXLSX, cfg, r); err != nil {
			return err
		}
		log.Info("Workbook written", "run", r.ID, "path", exportXLSX)
	}
	return nil
}
