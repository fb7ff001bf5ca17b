package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "contentkit",
		Short: "Classify files, decode text and normalize model event streams",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return SetupGlobalConfig(cmd)
		},
		PersistentPostRunE: printMetrics,
	}
	addGlobalFlags(root.PersistentFlags())
	root.AddCommand(
		SniffCmd(),
		DecodeCmd(),
		ClassifyCmd(),
		StreamCmd(),
	)
	return root
}

func addGlobalFlags(flags *pflag.FlagSet) {
	flags.String("config", "contentkit.yaml", "Path to configuration file")
	flags.String("env-file", ".env", "Path to an environment file loaded before configuration")
	flags.String("log-level", "", "Log level (debug, info, warn, error, disabled)")
	flags.Bool("log-json", false, "Emit logs as JSON")
	flags.Bool("log-source", false, "Include source locations in logs")
	flags.Bool("print-metrics", false, "Print collected metrics in Prometheus text format on exit")
}
