package main

import (
	"fmt"

	"AgentAction/internal/app"
	"AgentAction/internal/cache"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var flushBadgeCacheCmd = &cobra.Command{
	Use:   "flush-badge-cache",
	Short: "Remove every cached badge from Redis",
	Long: `Deletes all cached badges, whatever renderer settings produced them.
Changing BADGE_LOGO_PATH, BADGE_FONT_PATH or BADGE_FONT_SIZE already makes
new requests miss the cache; this frees the old entries before their TTL.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		rdb, err := app.ConnectRedis(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer rdb.Close()

		n, err := cache.NewBadgeCache(rdb, 0, "").InvalidateAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("flush badge cache: %w", err)
		}
		logger.Info("badge cache flushed", zap.Int("keys", n))
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached badges\n", n)
		return nil
	},
}
