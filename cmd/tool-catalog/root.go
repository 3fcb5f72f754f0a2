package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/triage-ai/palisade/services/tool_catalog/internal/config"
)

const keyJSON = "json"

func newRootCmd() *cobra.Command {
	v := config.New()

	cmd := &cobra.Command{
		Use:          "tool-catalog",
		Short:        "Bioinformatics tool catalog client and service",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return config.ReadFile(v, v.GetString("config"))
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Config file path (optional).")
	flags.String("backend-url", "", "Base URL of the tool backend.")
	flags.String("log-level", "", "Log level: debug, info, warn, error.")
	flags.Duration("http-timeout", 0, "Timeout for backend requests.")
	flags.Bool(keyJSON, false, "Print JSON output.")

	bindFlag(v, cmd, "config", "config")
	bindFlag(v, cmd, config.KeyBackendURL, "backend-url")
	bindFlag(v, cmd, config.KeyLogLevel, "log-level")
	bindFlag(v, cmd, config.KeyHTTPTimeout, "http-timeout")
	bindFlag(v, cmd, keyJSON, keyJSON)

	cmd.AddCommand(newServeCmd(v))
	cmd.AddCommand(newToolsCmd(v))
	cmd.AddCommand(newRouteCmd(v))

	return cmd
}

func bindFlag(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	f := cmd.PersistentFlags().Lookup(flag)
	if f == nil {
		f = cmd.Flags().Lookup(flag)
	}
	_ = v.BindPFlag(key, f)
}
