package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/youwol/cdn-sessions-storage/config"
)

var environmentsCmd = &cobra.Command{
	Use:   "environments",
	Short: "List the deployment environments",
	Long: `List every environment accepted by serve, with its log sink and the
environment variables it requires.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ENVIRONMENT\tLOG SINK\tREQUIRED VARIABLES")
		for _, env := range config.Environments() {
			required := strings.Join(config.Required(env), ", ")
			if required == "" {
				required = "-"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", env, config.LogSinkOf(env), required)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(environmentsCmd)
}
