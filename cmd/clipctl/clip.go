package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/therealutkarshpriyadarshi/ytclipper/internal/app"
	"github.com/therealutkarshpriyadarshi/ytclipper/pkg/models"
)

var clipOutput string

var clipCmd = &cobra.Command{
	Use:   "clip <url> <start> <end>",
	Short: "Create a clip from a YouTube video",
	Long: `Download the video (or reuse the cached copy) and cut the range [start, end).
Times accept SS, MM:SS or HH:MM:SS with optional fractional seconds.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if cfg.Clipper.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Clipper.RequestTimeout)
			defer cancel()
		}

		a, err := app.New(ctx, cfg, logger, app.Options{DisableCleanup: true})
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Service.CreateClip(ctx, args[0], args[1], args[2])
		if err != nil {
			if detail := models.DetailOf(err); detail != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), detail)
			}
			return err
		}

		path := result.Clip.Path
		if clipOutput != "" {
			if err := os.Rename(path, clipOutput); err != nil {
				return fmt.Errorf("failed to move clip to %s: %w", clipOutput, err)
			}
			path = clipOutput
		}

		source := "downloaded"
		if result.CacheHit {
			source = "cached"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Clip %s (%.3fs, %d bytes, %s source video %s)\n",
			result.Clip.ID, result.Clip.Duration, result.Clip.Size, source, result.VideoID)
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	clipCmd.Flags().StringVarP(&clipOutput, "output", "o", "", "move the finished clip to this path")
	rootCmd.AddCommand(clipCmd)
}
