package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCountCmd(opts *globalOptions) *cobra.Command {
	var q queryFlags

	cmd := &cobra.Command{
		Use:   "count <index>",
		Short: "Count matching documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, client, cleanup, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			ds, err := q.apply(client.Index(args[0]))
			if err != nil {
				return err
			}
			n, err := ds.Count(ctx)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
			return err
		},
	}
	q.register(cmd)
	return cmd
}
