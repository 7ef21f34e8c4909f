// Command cli runs maintenance tasks against the configured waitlist store.
//
// Usage:
//
//	cli migrate                 # apply SQL migrations (postgres)
//	cli init-store              # create the empty waitlist if missing
//	cli count                   # print the number of signups
//	cli import waitlist.json    # replace the waitlist with a JSON export
package main

import (
	"os"

	"github.com/akeren/go-waitlist/config"
	"github.com/akeren/go-waitlist/internal/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cli",
	Short: "Waitlist maintenance commands",
	Long: `Maintenance commands for the waitlist service.

Every command reads the same environment as the server (STORE_DRIVER,
REDIS_*, POSTGRES_*, SQLITE_PATH, WAITLIST_KEY, ...), including a .env file
unless SKIP_DOTENV=true.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.InitializeEnvFile(cliLogger())
	},
}

func cliLogger() *log.Logger {
	return log.NewLogger(os.Stderr, log.ParseLevel(os.Getenv("LOG_LEVEL")))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
