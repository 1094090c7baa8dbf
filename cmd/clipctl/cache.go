package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/therealutkarshpriyadarshi/ytclipper/internal/app"
)

var (
	cacheLimit  int
	cacheOffset int
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached source videos",
}

var cacheListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List cached source videos",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.Service.ListCached(cmd.Context(), cacheLimit, cacheOffset)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No cached videos.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "VIDEO ID\tSIZE\tDURATION\tDOWNLOADED\tPATH")
		for _, r := range records {
			size, duration := "-", "-"
			if r.FileSize != nil {
				size = fmt.Sprintf("%d", *r.FileSize)
			}
			if r.Duration != nil {
				duration = fmt.Sprintf("%d:%02d", *r.Duration/60, *r.Duration%60)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				r.VideoID, size, duration, r.DownloadedAt.Local().Format("2006-01-02 15:04"), r.FilePath)
		}
		return w.Flush()
	},
}

var cacheEvictCmd = &cobra.Command{
	Use:   "evict <video-id>...",
	Short: "Remove cached source videos",
	Long:  `Deactivate the cache record for each video ID and delete its file. The next clip request downloads it again.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		for _, id := range args {
			evicted, err := a.Service.Evict(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to evict %s: %w", id, err)
			}
			if evicted {
				fmt.Fprintf(cmd.OutOrStdout(), "Evicted %s\n", id)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is not cached\n", id)
			}
		}
		return nil
	},
}

// openApp builds the pipeline for commands that never invoke external tools.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), cfg, logger, app.Options{SkipToolCheck: true, DisableCleanup: true})
}

func init() {
	cacheListCmd.Flags().IntVar(&cacheLimit, "limit", 50, "maximum records to list")
	cacheListCmd.Flags().IntVar(&cacheOffset, "offset", 0, "records to skip")

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheEvictCmd)
	rootCmd.AddCommand(cacheCmd)
}
