// Package advisor implements a second, read-only walk over a translated AST
// that records index-worthy access patterns and turns them into per-dialect
// index recommendations. It never touches the database and never influences
// the translated SQL — it is pure static advice.
package advisor

import "github.com/shibukawa/cel2sql/dialect"

// PatternType is the kind of index-worthy access the walker detected at one
// AST site.
type PatternType int

const (
	PatternComparison PatternType = iota
	PatternJSONAccess
	PatternRegexMatch
	PatternArrayMembership
	PatternArrayComprehension
	PatternJSONArrayComprehension
)

// priority ranks patterns when more than one touches the same column: the
// most specialized pattern wins (_analysis.py's _pattern_priority).
func (p PatternType) priority() int {
	switch p {
	case PatternComparison:
		return 1
	case PatternArrayMembership:
		return 2
	case PatternRegexMatch, PatternJSONAccess, PatternArrayComprehension, PatternJSONArrayComprehension:
		return 3
	default:
		return 0
	}
}

// IndexType is the kind of index structure recommended for a column.
// Mirrors _analysis_types.py's IndexType enum; not every dialect supports
// every member (e.g. GIN is PostgreSQL-only, ART is DuckDB's).
type IndexType int

const (
	IndexBTree IndexType = iota
	IndexGIN
	IndexGIST
	IndexART
	IndexClustering
	IndexSearchIndex
	IndexFullText
)

func (t IndexType) String() string {
	switch t {
	case IndexBTree:
		return "BTREE"
	case IndexGIN:
		return "GIN"
	case IndexGIST:
		return "GIST"
	case IndexART:
		return "ART"
	case IndexClustering:
		return "CLUSTERING"
	case IndexSearchIndex:
		return "SEARCH_INDEX"
	case IndexFullText:
		return "FULLTEXT"
	default:
		return "UNKNOWN"
	}
}

// priority ranks index types when more than one pattern on the same column
// produces a recommendation: the more specialized structure wins
// (_analysis.py's _index_priority).
func (t IndexType) priority() int {
	switch t {
	case IndexBTree, IndexART, IndexClustering:
		return 1
	case IndexFullText:
		return 2
	case IndexGIN, IndexGIST, IndexSearchIndex:
		return 3
	default:
		return 0
	}
}

// indexPattern is one detected access site, keyed by table+column so
// patterns on same-named columns in different tables never collide (an
// intentional refinement over _analysis.py, which keys by column name
// alone).
type indexPattern struct {
	table   string
	column  string
	pattern PatternType
}

func (p indexPattern) key() string { return p.table + "." + p.column }

// Recommendation is one suggested index, scoped to the dialect Analyze was
// called for.
type Recommendation struct {
	Table      string
	Column     string
	IndexType  IndexType
	Expression string
	Reason     string
}

// dialectMapping describes, for one dialect, which IndexType (if any) a
// PatternType earns and why. A nil entry means the dialect has no index
// structure worth recommending for that pattern (e.g. SQLite has no
// dedicated JSON index), so Analyze emits nothing for it.
type dialectMapping map[PatternType]*indexAdvice

type indexAdvice struct {
	indexType IndexType
	reason    string
}

// advisors holds one dialectMapping per supported dialect, built from each
// engine's actual indexing feature set — PostgreSQL's GIN/GIST, DuckDB's ART,
// BigQuery's clustering and search indexes, MySQL's FULLTEXT and generated
// functional indexes. Recorded here as a single table rather than decided
// ad hoc per call site, so adding a dialect means adding one map entry.
var advisors = map[dialect.Name]dialectMapping{
	dialect.PostgreSQL: {
		PatternComparison:            {IndexBTree, "equality/range comparisons benefit from a B-tree index"},
		PatternArrayMembership:       {IndexGIN, "array containment (IN over an array column) is GIN-accelerated"},
		PatternRegexMatch:            {IndexGIST, "trigram GiST indexes accelerate regex/LIKE matching (requires pg_trgm)"},
		PatternJSONAccess:            {IndexGIN, "jsonb_path_ops GIN index accelerates repeated JSON key access"},
		PatternArrayComprehension:    {IndexGIN, "array containment under a comprehension is GIN-accelerated"},
		PatternJSONArrayComprehension: {IndexGIN, "GIN over the JSON array accelerates comprehension element access"},
	},
	dialect.MySQL: {
		PatternComparison: {IndexBTree, "equality/range comparisons benefit from a B-tree index"},
		PatternRegexMatch:  {IndexFullText, "FULLTEXT index accelerates text search patterns"},
		PatternJSONAccess:  {IndexBTree, "a generated column over the JSON path, indexed with B-tree, accelerates repeated access"},
	},
	dialect.SQLite: {
		PatternComparison: {IndexBTree, "equality/range comparisons benefit from a B-tree index"},
		PatternJSONAccess:  {IndexBTree, "an expression index over json_extract accelerates repeated access"},
	},
	dialect.DuckDB: {
		PatternComparison:         {IndexART, "DuckDB's Adaptive Radix Tree index accelerates point lookups"},
		PatternArrayMembership:    {IndexART, "an ART index over the column accelerates array containment checks"},
		PatternArrayComprehension: {IndexART, "an ART index over the column accelerates element lookups under a comprehension"},
	},
	dialect.BigQuery: {
		PatternComparison:            {IndexClustering, "clustering the table on this column accelerates equality/range filters"},
		PatternRegexMatch:            {IndexSearchIndex, "a search index accelerates regex/text matching"},
		PatternArrayMembership:       {IndexClustering, "clustering on the array column accelerates membership filters"},
		PatternArrayComprehension:    {IndexClustering, "clustering on the array column accelerates comprehension filters"},
		PatternJSONArrayComprehension: {IndexSearchIndex, "a search index over the JSON array accelerates comprehension filters"},
	},
}
