package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/triage-ai/palisade/services/tool_catalog/internal/route"
)

func newRouteCmd(v *viper.Viper) *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "route <page-path>",
		Short: "Resolve a page path against the application's route table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			match, ok := route.Default.Match(args[0])
			if ok && follow {
				match, ok = route.Default.Resolve(args[0])
			}
			if !ok {
				return fmt.Errorf("no route matches %q", args[0])
			}

			out := cmd.OutOrStdout()
			if v.GetBool(keyJSON) {
				return printJSON(out, match)
			}
			fmt.Fprintln(out, match.Name)
			keys := make([]string, 0, len(match.Params))
			for k := range match.Params {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "  %s=%s\n", k, match.Params[k])
			}
			if match.RedirectTo != "" {
				fmt.Fprintf(out, "  redirect -> %s\n", match.RedirectTo)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&follow, "follow", false, "Follow redirects to the rendered page.")

	return cmd
}
