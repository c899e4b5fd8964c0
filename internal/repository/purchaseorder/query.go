package purchaseorder

import (
	"math"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/Additional-Code/procurement/internal/entity"
)

// Page defaults applied when the caller supplies a value below 1.
const (
	DefaultPageNumber = 1
	DefaultPageSize   = 10
)

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// sortColumns maps the lowercased sortBy values onto columns.
var sortColumns = map[string]string{
	"ponumber":    "po_number",
	"orderdate":   "order_date",
	"totalamount": "total_amount",
}

// Filter carries the optional criteria of a list query. The zero value
// selects every record, first page, ordered by id.
type Filter struct {
	Supplier   string
	Status     entity.Status
	DateFrom   *time.Time
	DateTo     *time.Time
	SortBy     string
	SortDir    string
	PageNumber int
	PageSize   int
}

// Normalize coerces the page parameters to their effective values.
func (f Filter) Normalize() Filter {
	if f.PageNumber < 1 {
		f.PageNumber = DefaultPageNumber
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	return f
}

// Offset is the number of records skipped before the requested page. It
// saturates at math.MaxInt instead of overflowing.
func (f Filter) Offset() int {
	f = f.Normalize()
	if f.PageNumber-1 > math.MaxInt/f.PageSize {
		return math.MaxInt
	}
	return (f.PageNumber - 1) * f.PageSize
}

// PastEnd reports whether the requested page starts after the last of total
// matching records.
func (f Filter) PastEnd(total int) bool {
	f = f.Normalize()
	return total <= 0 || f.PageNumber-1 > (total-1)/f.PageSize
}

// SortColumn resolves sortBy; unknown keys fall back to id.
func (f Filter) SortColumn() string {
	if col, ok := sortColumns[strings.ToLower(strings.TrimSpace(f.SortBy))]; ok {
		return col
	}
	return "id"
}

// SortDirection resolves sortDir; anything but desc sorts ascending.
func (f Filter) SortDirection() string {
	if strings.EqualFold(strings.TrimSpace(f.SortDir), SortDesc) {
		return SortDesc
	}
	return SortAsc
}

func (f Filter) applyWhere(q *bun.SelectQuery) *bun.SelectQuery {
	if strings.TrimSpace(f.Supplier) != "" {
		q = q.Where("supplier_name LIKE ? ESCAPE '!'", "%"+escapeLike(f.Supplier)+"%")
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.DateFrom != nil {
		q = q.Where("order_date >= ?", TruncateDate(*f.DateFrom))
	}
	if f.DateTo != nil {
		q = q.Where("order_date <= ?", TruncateDate(*f.DateTo))
	}
	return q
}

func (f Filter) applyOrder(q *bun.SelectQuery) *bun.SelectQuery {
	col := f.SortColumn()
	q = q.OrderExpr("? ?", bun.Ident(col), bun.Safe(strings.ToUpper(f.SortDirection())))
	if col != "id" {
		q = q.OrderExpr("? ASC", bun.Ident("id"))
	}
	return q
}

func (f Filter) applyPage(q *bun.SelectQuery) *bun.SelectQuery {
	f = f.Normalize()
	return q.Offset(f.Offset()).Limit(f.PageSize)
}

// TruncateDate returns midnight UTC of the calendar day t names.
func TruncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
