package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newSearchCmd(opts *globalOptions) *cobra.Command {
	var (
		q     queryFlags
		sorts []string
		size  int
		from  int
	)

	cmd := &cobra.Command{
		Use:   "search <index>",
		Short: "Print matching documents, one JSON object per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sortFields, err := parseSorts(sorts)
			if err != nil {
				return err
			}

			ctx, client, cleanup, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			ds, err := q.apply(client.Index(args[0]))
			if err != nil {
				return err
			}
			ds = ds.Size(size).From(from)
			if len(sortFields) > 0 {
				ds = ds.Sort(sortFields...)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for doc, err := range ds.Each(ctx) {
				if err != nil {
					return err
				}
				if err := enc.Encode(doc); err != nil {
					return err
				}
			}
			return nil
		},
	}
	q.register(cmd)
	cmd.Flags().StringArrayVarP(&sorts, "sort", "s", nil, "Sort clause field[:asc|:desc] (repeatable)")
	cmd.Flags().IntVarP(&size, "size", "n", 10, "Maximum number of documents")
	cmd.Flags().IntVar(&from, "from", 0, "Offset of the first document")
	return cmd
}
