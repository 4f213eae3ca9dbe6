package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/pariah"
	"github.com/kailas-cloud/pariah/internal/domain/search/filter"
	"github.com/kailas-cloud/pariah/internal/domain/search/query"
)

// queryFlags narrow a dataset by types and term filters.
type queryFlags struct {
	types []string
	terms []string
}

func (q *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&q.terms, "term", "t", nil,
		"Equality filter field:value (repeatable, combined with AND)")
	cmd.Flags().StringSliceVar(&q.types, "type", nil, "Document types to target")
}

func (q *queryFlags) apply(ds *pariah.Dataset) (*pariah.Dataset, error) {
	if len(q.types) > 0 {
		ds = ds.Types(q.types...)
	}
	conds := make([]pariah.Condition, 0, len(q.terms))
	for _, raw := range q.terms {
		c, err := filter.ParseCondition(raw)
		if err != nil {
			return nil, fmt.Errorf("--term: %w", err)
		}
		conds = append(conds, c)
	}
	return ds.Terms(conds...), nil
}

func parseSorts(raw []string) ([]pariah.SortField, error) {
	out := make([]pariah.SortField, 0, len(raw))
	for _, s := range raw {
		sf, err := query.ParseSort(s)
		if err != nil {
			return nil, fmt.Errorf("--sort: %w", err)
		}
		out = append(out, sf)
	}
	return out, nil
}
