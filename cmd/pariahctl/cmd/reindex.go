package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/pariah"
)

type reindexOptions struct {
	source       string
	schemaFile   string
	indexName    string
	batch        int
	upsert       bool
	keepProgress bool
	query        queryFlags
}

func newReindexCmd(opts *globalOptions) *cobra.Command {
	ro := &reindexOptions{}

	cmd := &cobra.Command{
		Use:   "reindex <alias>",
		Short: "Rebuild an index behind its alias",
		Long: `Reindex copies documents from --from into a new physical index named
<alias>-<timestamp>, then atomically points <alias> at it.

Documents are read in pages of --batch using from/size paging, so the source
must stay within the engine's result window. On failure the new index is
dropped, or kept with --keep-progress and resumed later with --index-name.
A resumed index is never dropped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ro.source == "" {
				return errors.New("--from is required")
			}
			if ro.batch <= 0 {
				return fmt.Errorf("--batch must be positive, got %d", ro.batch)
			}

			var rewriteOpts []pariah.RewriteOption
			if ro.schemaFile != "" {
				schema, err := readSchema(ro.schemaFile)
				if err != nil {
					return err
				}
				rewriteOpts = append(rewriteOpts, pariah.WithRewriteSchema(schema))
			}
			if ro.indexName != "" {
				rewriteOpts = append(rewriteOpts, pariah.WithIndexName(ro.indexName))
			}
			if ro.keepProgress {
				rewriteOpts = append(rewriteOpts, pariah.KeepProgressOnError())
			}

			ctx, client, cleanup, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			src, err := ro.query.apply(client.Index(ro.source))
			if err != nil {
				return err
			}

			var (
				physical string
				copied   int
			)
			_, err = client.Index(args[0]).RewriteIndex(ctx, func(ctx context.Context, dst *pariah.Dataset) error {
				physical, _ = dst.SingleIndex()
				n, copyErr := copyDocuments(ctx, src, dst, ro.batch, ro.upsert)
				copied = n
				return copyErr
			}, rewriteOpts...)
			if err != nil {
				if ro.keepProgress && physical != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "kept %s; resume with --index-name %s\n", physical, physical)
				}
				return fmt.Errorf("reindex %s: %w", args[0], err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%d documents)\n", args[0], physical, copied)
			return err
		},
	}

	cmd.Flags().StringVar(&ro.source, "from", "", "Index or alias to copy documents from")
	cmd.Flags().StringVar(&ro.schemaFile, "schema", "", `JSON file with {"settings":…,"mappings":…} for the new index`)
	cmd.Flags().StringVar(&ro.indexName, "index-name", "", "Resume into this existing physical index")
	cmd.Flags().IntVar(&ro.batch, "batch", 500, "Documents per page and per bulk request")
	cmd.Flags().BoolVar(&ro.upsert, "upsert", false, `Use each document's "id" field as its engine id`)
	cmd.Flags().BoolVar(&ro.keepProgress, "keep-progress", false, "Keep the partial index if copying fails")
	ro.query.register(cmd)
	return cmd
}

// copyDocuments pages through src in index order and writes each page to dst,
// then refreshes dst. It returns the number of documents written.
func copyDocuments(ctx context.Context, src, dst *pariah.Dataset, batch int, upsert bool) (int, error) {
	write := dst.BulkIndex
	if upsert {
		write = dst.Upsert
	}

	// "_doc" is the engine's cheapest stable order.
	pages := src.Sort(pariah.SortBy("_doc")).Size(batch)
	copied := 0
	for from := 0; ; from += batch {
		docs, err := pages.From(from).All(ctx)
		if err != nil {
			return copied, fmt.Errorf("read page at %d: %w", from, err)
		}
		if len(docs) == 0 {
			break
		}
		if err := write(ctx, docs); err != nil {
			return copied, fmt.Errorf("write page at %d: %w", from, err)
		}
		copied += len(docs)
		if len(docs) < batch {
			break
		}
	}
	return copied, dst.Refresh(ctx)
}

func readSchema(path string) (pariah.Schema, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return pariah.Schema{}, fmt.Errorf("read schema: %w", err)
	}
	var raw struct {
		Settings map[string]any `json:"settings"`
		Mappings map[string]any `json:"mappings"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return pariah.Schema{}, fmt.Errorf("parse schema %s: %w", path, err)
	}
	return pariah.Schema{Settings: raw.Settings, Mappings: raw.Mappings}, nil
}
