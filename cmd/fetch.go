package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pable/go-topstats/internal/dpsreport"
)

var (
	fetchOut     string
	fetchBaseURL string
	fetchWorkers int
)

// fetchCmd is the cobra command for downloading reports from dps.report.
var fetchCmd = &cobra.Command{
	Use:   "fetch <permalink|url>...",
	Short: "Download Elite Insights reports from dps.report",
	Long: `Downloads the Elite Insights JSON of each dps.report permalink and writes it,
zstd-compressed, as <permalink>.json.zst into the output directory. Files that
already exist are left alone. Process the directory afterwards with
'topstats parse <dir>'.

Example:
  topstats fetch --out raids/2024-03-01 https://dps.report/AbCd-20240301-201500_wvw`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchOut, "out", "o", ".", "directory to write the reports to")
	fetchCmd.Flags().StringVar(&fetchBaseURL, "base-url", dpsreport.DefaultBaseURL, "dps.report endpoint")
	fetchCmd.Flags().IntVar(&fetchWorkers, "workers", 4, "parallel downloads")
}

func runFetch(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(fetchOut, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	client := dpsreport.NewClient(fetchBaseURL)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(fetchWorkers, 1))
	for _, arg := range args {
		permalink := dpsreport.Permalink(arg)
		dest := filepath.Join(fetchOut, permalink+".json.zst")
		if _, err := os.Stat(dest); err == nil {
			log.Info("Already downloaded", "permalink", permalink)
			continue
		}
		g.Go(func() error {
			tmp := dest + ".part"
			out, err := os.Create(tmp)
			if err != nil {
				return fmt.Errorf("create %s: %w", tmp, err)
			}
			enc, err := zstd.NewWriter(out)
			if err != nil {
				out.Close()
				return err
			}
			if err := client.GetJSON(ctx, permalink, enc); err != nil {
				enc.Close()
				out.Close()
				os.Remove(tmp)
				return err
			}
			if err := enc.Close(); err != nil {
				out.Close()
				return fmt.Errorf("compress %s: %w", permalink, err)
			}
			if err := out.Close(); err != nil {
				return err
			}
			log.Info("Downloaded", "permalink", permalink, "path", dest)
			return os.Rename(tmp, dest)
		})
	}
	return g.Wait()
}
