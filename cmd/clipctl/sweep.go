package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/therealutkarshpriyadarshi/ytclipper/internal/cleanup"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/process"
)

var sweepOlderThan time.Duration

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete generated clips older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		age := cfg.Clipper.ClipRetention
		if cmd.Flags().Changed("older-than") {
			age = sweepOlderThan
		}

		n, err := cleanup.Sweep(cfg.Clipper.WorkDir, age)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d clips older than %s from %s\n", n, age, cfg.Clipper.WorkDir)
		return nil
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that yt-dlp, ffmpeg and ffprobe are installed",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		tools := []process.Tool{
			{Name: "yt-dlp", Path: cfg.Clipper.YtdlpPath},
			{Name: "ffmpeg", Path: cfg.Clipper.FFmpegPath},
			{Name: "ffprobe", Path: cfg.Clipper.FFprobePath},
		}
		missing := 0
		for _, t := range tools {
			if errs := process.CheckTools(t); len(errs) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "✗ %s: NOT FOUND (%s)\n", t.Name, t.Path)
				missing++
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: OK\n", t.Name)
			}
		}
		if missing > 0 {
			return fmt.Errorf("%d required tools missing", missing)
		}
		return nil
	},
}

func init() {
	sweepCmd.Flags().DurationVar(&sweepOlderThan, "older-than", time.Hour, "minimum clip age to delete")
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(doctorCmd)
}
