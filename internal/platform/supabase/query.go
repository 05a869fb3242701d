package supabase

import (
	"net/url"
	"strconv"
	"strings"
)

// Query builds a PostgREST filter string. Values are escaped, operators are not.
type Query struct {
	parts []string
}

func NewQuery() *Query { return &Query{} }

func (q *Query) add(key, value string) *Query {
	q.parts = append(q.parts, url.QueryEscape(key)+"="+url.QueryEscape(value))
	return q
}

func (q *Query) Eq(column, value string) *Query { return q.add(column, "eq."+value) }

// ILike matches value anywhere in column, case-insensitively.
func (q *Query) ILike(column, value string) *Query {
	return q.add(column, "ilike.*"+value+"*")
}

func (q *Query) Select(columns ...string) *Query {
	return q.add("select", strings.Join(columns, ","))
}

func (q *Query) Order(column string, desc bool) *Query {
	dir := "asc"
	if desc {
		dir = "desc"
	}
	return q.add("order", column+"."+dir)
}

func (q *Query) Limit(n int) *Query { return q.add("limit", strconv.Itoa(n)) }

func (q *Query) OnConflict(columns ...string) *Query {
	return q.add("on_conflict", strings.Join(columns, ","))
}

// Path appends the encoded query to a table path, e.g. /rest/v1/chats?...
func (q *Query) Path(table string) string {
	base := "/rest/v1/" + table
	if q == nil || len(q.parts) == 0 {
		return base
	}
	return base + "?" + strings.Join(q.parts, "&")
}
