package cmd

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newIndicesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "indices [pattern]",
		Short: "List indices with health and document counts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := "*"
			if len(args) == 1 {
				pattern = args[0]
			}

			ctx, client, cleanup, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			infos, err := client.Indices(ctx, pattern)
			if err != nil {
				return err
			}
			sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "INDEX\tHEALTH\tSTATUS\tDOCS")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", info.Name, info.Health, info.Status, info.DocsCount)
			}
			return tw.Flush()
		},
	}
}

func newAliasesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "aliases <index>",
		Short: "Show the aliases held by an index or alias",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, client, cleanup, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			byIndex, err := client.Aliases(ctx, args[0])
			if err != nil {
				return err
			}
			names := make([]string, 0, len(byIndex))
			for name := range byIndex {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, strings.Join(byIndex[name], ", ")); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
