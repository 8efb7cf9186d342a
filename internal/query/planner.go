// Package query chooses between a secondary-index lookup and a full scan
// for a set of filter parameters.
//
// An index plan costs O(matching items); a scan plan costs O(collection
// size) and filters in memory. Scans are an acceptable fallback for small
// collections but must not be the primary access path once a collection
// grows past a few thousand items — register an index for any filter that
// becomes hot.
package query

// Index describes a secondary index over a collection: an exact-match
// field and the sort key results are ordered by.
type Index struct {
	Name      string
	Field     string
	SortField string
}

// Plan is the chosen access path. When Index is non-nil the plan is an
// index lookup for Key, ordered ascending by the index's sort field.
// Otherwise the plan is a full scan and Filters holds the compound
// predicate (logical AND over every field).
type Plan struct {
	Index   *Index
	Key     string
	Filters map[string]string
}

func (p Plan) IsScan() bool {
	return p.Index == nil
}

// Build selects the access path for the given filters. A single filter
// whose field exactly matches a registered index becomes an index lookup;
// everything else — no filters, several filters, or a field no index
// covers — falls back to a scan.
func Build(indexes []Index, filters map[string]string) Plan {
	if len(filters) == 1 {
		for field, key := range filters {
			for i := range indexes {
				if indexes[i].Field == field {
					return Plan{Index: &indexes[i], Key: key}
				}
			}
		}
	}
	return Plan{Filters: filters}
}

// Matches evaluates the scan predicate against one entity, reading
// attribute values through attr. Every filter must match.
func (p Plan) Matches(attr func(field string) string) bool {
	for field, want := range p.Filters {
		if attr(field) != want {
			return false
		}
	}
	return true
}
