package elastic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"

	"github.com/kailas-cloud/pariah/internal/db"
)

// aliasListing is the reply shape of both _aliases and _alias/<name>.
// Alias metadata (filters, routing) is not read.
type aliasListing map[string]struct {
	Aliases map[string]json.RawMessage `json:"aliases"`
}

// Aliases returns the aliases carried by every index matched by indexPath.
func (s *Store) Aliases(ctx context.Context, indexPath string) (map[string][]string, error) {
	var listing aliasListing
	if err := s.doJSON(ctx, http.MethodGet, indexPath+"/_aliases", nil, &listing); err != nil {
		return nil, &db.Error{Op: db.OpAliases, Err: err}
	}
	return listing.flatten(), nil
}

// AliasHolders returns the indices the alias currently points to.
// An unknown alias yields no holders.
func (s *Store) AliasHolders(ctx context.Context, alias string) ([]string, error) {
	var listing aliasListing
	if err := s.doJSON(ctx, http.MethodGet, "_alias/"+url.PathEscape(alias), nil, &listing); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		return nil, &db.Error{Op: db.OpAliasHolders, Err: err}
	}
	holders := make([]string, 0, len(listing))
	for name := range listing {
		holders = append(holders, name)
	}
	sort.Strings(holders)
	return holders, nil
}

// UpdateAliases applies actions atomically in a single request.
func (s *Store) UpdateAliases(ctx context.Context, actions []db.AliasAction) error {
	body := make([]map[string]any, 0, len(actions))
	for _, a := range actions {
		args := map[string]any{"index": a.Index}
		if a.Type != db.AliasRemoveIndex {
			args["alias"] = a.Alias
		}
		body = append(body, map[string]any{string(a.Type): args})
	}
	if err := s.doJSON(ctx, http.MethodPost, "_aliases", map[string]any{"actions": body}, nil); err != nil {
		return &db.Error{Op: db.OpUpdateAliases, Err: err}
	}
	return nil
}

func (l aliasListing) flatten() map[string][]string {
	out := make(map[string][]string, len(l))
	for idx, entry := range l {
		names := make([]string, 0, len(entry.Aliases))
		for a := range entry.Aliases {
			names = append(names, a)
		}
		sort.Strings(names)
		out[idx] = names
	}
	return out
}
