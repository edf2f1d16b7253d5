package cms

import (
	"net/url"
	"strconv"
)

// Query accumulates the filter, population, sort, pagination and field
// parameters of one content API call. Each call site declares exactly one
// filter strategy and a fixed population allow-list; nothing is composed
// dynamically beyond what a page needs.
//
// Encoding is deterministic (url.Values sorts by key), so cache keys
// derived from the same logical query are identical across requests.
type Query struct {
	values url.Values
	sorts  int
	pops   int
	fields int
}

// NewQuery returns an empty query.
func NewQuery() *Query {
	return &Query{values: url.Values{}}
}

// FilterEq adds an exact-match filter: filters[field][$eq]=value.
func (q *Query) FilterEq(field, value string) *Query {
	q.values.Set("filters["+field+"][$eq]", value)
	return q
}

// FilterNe adds an exclusion filter: filters[field][$ne]=value.
func (q *Query) FilterNe(field, value string) *Query {
	q.values.Set("filters["+field+"][$ne]", value)
	return q
}

// FilterRelEq adds an exact-match filter on a related record's field:
// filters[relation][field][$eq]=value.
func (q *Query) FilterRelEq(relation, field, value string) *Query {
	q.values.Set("filters["+relation+"]["+field+"][$eq]", value)
	return q
}

// FilterNotNull requires field to be populated: filters[field][$notNull]=true.
func (q *Query) FilterNotNull(field string) *Query {
	q.values.Set("filters["+field+"][$notNull]", "true")
	return q
}

// FilterContains adds a case-insensitive substring filter, used by search.
func (q *Query) FilterContains(field, value string) *Query {
	q.values.Set("filters["+field+"][$containsi]", value)
	return q
}

// Populate appends relations to the population allow-list:
// populate[0]=cover, populate[1]=author, ...
func (q *Query) Populate(relations ...string) *Query {
	for _, rel := range relations {
		q.values.Set("populate["+strconv.Itoa(q.pops)+"]", rel)
		q.pops++
	}
	return q
}

// PopulateNested requests a relation together with one of its own
// relations: populate[relation][populate]=subrelation.
func (q *Query) PopulateNested(relation, subrelation string) *Query {
	q.values.Set("populate["+relation+"][populate]", subrelation)
	return q
}

// PopulateAll requests the full object graph. Only acceptable on small
// enumeration collections (categories, games) where volume is low.
func (q *Query) PopulateAll() *Query {
	q.values.Set("populate", "*")
	return q
}

// Sort appends a sort directive: sort[0]=publishedAt:desc, ...
func (q *Query) Sort(directive string) *Query {
	q.values.Set("sort["+strconv.Itoa(q.sorts)+"]", directive)
	q.sorts++
	return q
}

// Page sets pagination[page].
func (q *Query) Page(page int) *Query {
	q.values.Set("pagination[page]", strconv.Itoa(page))
	return q
}

// PageSize sets pagination[pageSize].
func (q *Query) PageSize(size int) *Query {
	q.values.Set("pagination[pageSize]", strconv.Itoa(size))
	return q
}

// Limit sets pagination[limit] for flat top-N queries.
func (q *Query) Limit(n int) *Query {
	q.values.Set("pagination[limit]", strconv.Itoa(n))
	return q
}

// Fields restricts the response to the named fields:
// fields[0]=title, fields[1]=slug, ...
func (q *Query) Fields(fields ...string) *Query {
	for _, f := range fields {
		q.values.Set("fields["+strconv.Itoa(q.fields)+"]", f)
		q.fields++
	}
	return q
}

// Encode renders the query string with stable key ordering.
func (q *Query) Encode() string {
	return q.values.Encode()
}
