package main

import (
	"fmt"
	"os"

	"AgentAction/internal/badge"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	renderName string
	renderOut  string
)

var renderBadgeCmd = &cobra.Command{
	Use:   "render-badge",
	Short: "Render a badge to a PNG file",
	Long: `Renders the same badge POST /process returns, using the BADGE_* settings,
and writes it as a PNG. Handy for checking a custom logo or font.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		r, err := badge.New(badge.Options{
			LogoPath: cfg.Badge.LogoPath,
			FontPath: cfg.Badge.FontPath,
			FontSize: cfg.Badge.FontSize,
			Logger:   logger,
		})
		if err != nil {
			return err
		}
		raw, err := r.RenderPNG(cfg.Badge.Title, "Deployed by "+renderName)
		if err != nil {
			return err
		}
		if err := os.WriteFile(renderOut, raw, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", renderOut, err)
		}
		logger.Info("badge written", zap.String("path", renderOut), zap.Int("bytes", len(raw)))
		return nil
	},
}

func init() {
	renderBadgeCmd.Flags().StringVar(&renderName, "name", "Neo", "name shown on the badge")
	renderBadgeCmd.Flags().StringVarP(&renderOut, "out", "o", "badge.png", "output file")
}
