// @title           Agentforce Action
// @version         0.1.0
// @description     Basic Agentforce Action example
// @BasePath        /
// @securityDefinitions.basic  BasicAuth
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "agentaction",
	Short: "Custom action service for an agent platform",
	Long: `agentaction serves custom actions that an agent platform can call.

POST /process renders a "deployed by" badge for a name. The interactive API
docs are served at / behind HTTP basic auth. Configuration comes from the
environment (APP_PORT, AUTH_USERNAME, AUTH_PASSWORD, PG_DSN, REDIS_URL, ...).

Run without arguments to start the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, hashPasswordCmd, addUserCmd, renderBadgeCmd, flushBadgeCacheCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
