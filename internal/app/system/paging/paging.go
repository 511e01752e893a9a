// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageSize is the default number of rows in paged lists.
// Keep this as an int because most call sites add/subtract and then
// cast to int64 for Mongo Find().SetLimit().
const PageSize = 50

// LimitPlusOne returns PageSize+1 as int64 for look-ahead pagination
// (fetch one extra document to detect hasNext).
func LimitPlusOne() int64 { return int64(PageSize + 1) }

// ParseStart extracts the human-friendly "start" query parameter (1-based index).
// Returns 1 if not present or invalid.
func ParseStart(r *http.Request) int {
	s := query.Get(r, "start")
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ApplyOffset sets skip and look-ahead limit on find for a 1-based start.
func ApplyOffset(find *options.FindOptions, start int) *options.FindOptions {
	if start < 1 {
		start = 1
	}
	return find.SetSkip(int64(start - 1)).SetLimit(LimitPlusOne())
}

// Range holds computed display range values for a paginated list.
type Range struct {
	Start     int `json:"start"`     // 1-based start index (0 if no results)
	End       int `json:"end"`       // 1-based end index (0 if no results)
	PrevStart int `json:"prevStart"` // start value for previous page link
	NextStart int `json:"nextStart"` // start value for next page link
}

// Page is a trimmed result page.
type Page[T any] struct {
	Items   []T   `json:"items"`
	HasNext bool  `json:"hasNext"`
	Range   Range `json:"range"`
}

// Trim cuts a look-ahead fetch (PageSize+1 rows) down to one page.
func Trim[T any](rows []T, start int) Page[T] {
	hasNext := false
	if len(rows) > PageSize {
		rows = rows[:PageSize]
		hasNext = true
	}
	if rows == nil {
		rows = []T{}
	}
	return Page[T]{Items: rows, HasNext: hasNext, Range: ComputeRange(start, len(rows))}
}

// ComputeRange calculates display range values given the current start index
// and number of items shown.
func ComputeRange(start, shown int) Range {
	if shown == 0 {
		return Range{Start: 0, End: 0, PrevStart: 1, NextStart: 1}
	}

	prevStart := start - PageSize
	if prevStart < 1 {
		prevStart = 1
	}

	return Range{
		Start:     start,
		End:       start + shown - 1,
		PrevStart: prevStart,
		NextStart: start + shown,
	}
}
