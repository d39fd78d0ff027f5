package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/youwol/cdn-sessions-storage/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "cdn-sessions-storage",
	Short:   "Persistent storage of front-end application sessions",
	Long: `cdn-sessions-storage stores the session documents of YouWol
applications, scoped to the authenticated user.

The deployment environment (local, tricot, remote-clients, hybrid, prod)
selects the storage, cache and authentication backends.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if f, _ := cmd.Flags().GetString("config"); f != "" {
			files = append(files, f)
		}
		settings, err := config.LoadSettings(files, cmd.Flags())
		if err != nil {
			return err
		}
		setupLogging(os.Stderr, config.LogSinkConsole, settings.Log.Level)

		// one resolver per process; commands resolve through it
		ctx := config.WithContext(cmd.Context(), settings)
		cmd.SetContext(withResolver(ctx, config.NewResolver(settings)))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("databases", "", "local databases directory (default: ./databases, env: CDN_SESSIONS_LOCAL_DATABASES_PATH)")
	rootCmd.PersistentFlags().String("platform-path", "", "directory holding secrets/tricot.json (default: ., env: CDN_SESSIONS_PLATFORM_PATH)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: CDN_SESSIONS_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
