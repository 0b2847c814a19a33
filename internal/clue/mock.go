package clue

import "context"

// Mock returns canned results and records the queries it receives.
type Mock struct {
	Results []map[string]any
	Count   map[string]any
	Err     error

	Queries []MockQuery
}

// MockQuery is one recorded call.
type MockQuery struct {
	Resource string
	Clause   any
}

// RunFilterQuery records the query and returns Results.
func (m *Mock) RunFilterQuery(_ context.Context, resource string, filter any) ([]map[string]any, error) {
	m.Queries = append(m.Queries, MockQuery{resource, filter})
	return m.Results, m.Err
}

// RunCountQuery records the query and returns Count.
func (m *Mock) RunCountQuery(_ context.Context, resource string, where any) (map[string]any, error) {
	m.Queries = append(m.Queries, MockQuery{resource + "/count", where})
	return m.Count, m.Err
}
