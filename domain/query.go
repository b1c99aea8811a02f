package domain

// SortOrder is the direction of a [Sort].
type SortOrder int8

// Sort directions.
const (
	Asc  SortOrder = 1
	Desc SortOrder = -1
)

// String implements [fmt.Stringer].
func (o SortOrder) String() string {
	if o == Desc {
		return "DESC"
	}
	return "ASC"
}

// Sort is a single ordering rule. Multiple sorts are applied in sequence.
type Sort struct {
	Name  string
	Order SortOrder
}

// SortAsc returns an ascending sort on name.
func SortAsc(name string) Sort { return Sort{Name: name, Order: Asc} }

// SortDesc returns a descending sort on name.
func SortDesc(name string) Sort { return Sort{Name: name, Order: Desc} }

// SelectQuery describes a read. A nil Condition selects every entity with the
// given Name. Empty Fields means all fields; zero Limit means no limit.
type SelectQuery struct {
	Name      string
	Fields    []string
	Condition *Condition
	Sorts     []Sort
	Skip      int64
	Limit     int64
}

// NewSelectQuery builds a SelectQuery for the given entity name.
func NewSelectQuery(name string, options ...SelectOption) SelectQuery {
	q := SelectQuery{Name: name}
	for _, option := range options {
		option(&q)
	}
	return q
}

// Validate checks the query name and condition.
func (q SelectQuery) Validate() error {
	if q.Name == "" {
		return ErrNoEntityName
	}
	if q.Skip < 0 || q.Limit < 0 {
		return ErrNegativePagination
	}
	if q.Condition != nil {
		return q.Condition.Validate()
	}
	return nil
}

// DeleteQuery describes a removal. A nil Condition removes every entity with
// the given Name. Non-empty Fields removes only those fields on engines that
// support partial deletes.
type DeleteQuery struct {
	Name      string
	Fields    []string
	Condition *Condition
}

// NewDeleteQuery builds a DeleteQuery for the given entity name.
func NewDeleteQuery(name string, options ...DeleteOption) DeleteQuery {
	q := DeleteQuery{Name: name}
	for _, option := range options {
		option(&q)
	}
	return q
}

// Validate checks the query name and condition.
func (q DeleteQuery) Validate() error {
	if q.Name == "" {
		return ErrNoEntityName
	}
	if q.Condition != nil {
		return q.Condition.Validate()
	}
	return nil
}

// AsSelect returns a SelectQuery matching the same entities.
func (q DeleteQuery) AsSelect() SelectQuery {
	return SelectQuery{Name: q.Name, Condition: q.Condition}
}

// Paginate applies skip and limit to items already in memory, for engines
// that cannot skip server side. Zero limit means no limit.
func Paginate[T any](items []T, skip, limit int64) []T {
	if skip >= int64(len(items)) {
		return items[:0]
	}
	items = items[skip:]
	if limit > 0 && limit < int64(len(items)) {
		items = items[:limit]
	}
	return items
}
