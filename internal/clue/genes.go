package clue

import (
	"context"
	"fmt"
)

// GenesResource is the collection GenesInAPI queries.
const GenesResource = "genes"

// GenesInAPI returns the subset of symbols known to the API.
func GenesInAPI(ctx context.Context, q Querier, symbols []string) (map[string]struct{}, error) {
	filter := map[string]any{
		"where":  map[string]any{"pr_gene_symbol": map[string]any{"inq": symbols}},
		"fields": map[string]any{"pr_gene_symbol": true},
	}
	res, err := q.RunFilterQuery(ctx, GenesResource, filter)
	if err != nil {
		return nil, fmt.Errorf("querying genes: %w", err)
	}
	found := make(map[string]struct{}, len(res))
	for _, rec := range res {
		if s, ok := rec["pr_gene_symbol"].(string); ok {
			found[s] = struct{}{}
		}
	}
	return found, nil
}
