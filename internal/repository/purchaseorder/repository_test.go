package purchaseorder

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/procurement/internal/entity"
	"github.com/Additional-Code/procurement/internal/testutil"
)

func newRepository(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(testutil.NewDatabase(t))
}

func seed(t *testing.T, repo *Repository, orders ...*entity.PurchaseOrder) {
	t.Helper()
	for _, po := range orders {
		require.NoError(t, repo.Create(context.Background(), po))
	}
}

func numbers(items []entity.PurchaseOrder) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.PONumber)
	}
	return out
}

func amounts(items []entity.PurchaseOrder) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.TotalAmount.StringFixed(2))
	}
	return out
}

func TestFilter_Normalize(t *testing.T) {
	f := Filter{PageNumber: 0, PageSize: 0}.Normalize()
	assert.Equal(t, 1, f.PageNumber)
	assert.Equal(t, 10, f.PageSize)

	f = Filter{PageNumber: -4, PageSize: -1}.Normalize()
	assert.Equal(t, 1, f.PageNumber)
	assert.Equal(t, 10, f.PageSize)

	f = Filter{PageNumber: 3, PageSize: 25}.Normalize()
	assert.Equal(t, 3, f.PageNumber)
	assert.Equal(t, 25, f.PageSize)
	assert.Equal(t, 50, f.Offset())
}

func TestFilter_OffsetSaturates(t *testing.T) {
	f := Filter{PageNumber: math.MaxInt, PageSize: 2}
	assert.Equal(t, math.MaxInt, f.Offset())
	assert.True(t, f.PastEnd(12))

	assert.False(t, Filter{PageNumber: 2, PageSize: 10}.PastEnd(12))
	assert.True(t, Filter{PageNumber: 3, PageSize: 10}.PastEnd(12))
	assert.False(t, Filter{PageNumber: 2, PageSize: 6}.PastEnd(12))
	assert.True(t, Filter{}.PastEnd(0))
	assert.False(t, Filter{PageSize: math.MaxInt}.PastEnd(1))
}

func TestFilter_Sort(t *testing.T) {
	tests := []struct {
		sortBy, sortDir string
		col, dir        string
	}{
		{"", "", "id", SortAsc},
		{"poNumber", "DESC", "po_number", SortDesc},
		{"ORDERDATE", "asc", "order_date", SortAsc},
		{"totalamount", "Desc", "total_amount", SortDesc},
		{"supplierName", "sideways", "id", SortAsc},
	}
	for _, tt := range tests {
		f := Filter{SortBy: tt.sortBy, SortDir: tt.sortDir}
		assert.Equal(t, tt.col, f.SortColumn(), tt.sortBy)
		assert.Equal(t, tt.dir, f.SortDirection(), tt.sortDir)
	}
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "100!% cotton!_co!!", escapeLike("100% cotton_co!"))
}

func TestTruncateDate(t *testing.T) {
	in := time.Date(2024, time.March, 5, 17, 45, 12, 99, time.UTC)
	assert.True(t, TruncateDate(in).Equal(testutil.Day(2024, time.March, 5)))
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()

	po := testutil.PurchaseOrder("PO-1", "Acme Supplies", "1250.00", entity.StatusApproved, testutil.Day(2024, time.January, 2))
	po.Description = "Office chairs"
	require.NoError(t, repo.Create(ctx, po))
	require.NotZero(t, po.ID)

	got, err := repo.GetByID(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, "PO-1", got.PONumber)
	assert.Equal(t, "Office chairs", got.Description)
	assert.Equal(t, "1250.00", got.TotalAmount.StringFixed(2))
	assert.Equal(t, entity.StatusApproved, got.Status)
	assert.True(t, got.OrderDate.Equal(testutil.Day(2024, time.January, 2)))

	_, err = repo.GetByID(ctx, po.ID+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_GetByPONumberIgnoresCase(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()
	seed(t, repo, testutil.PurchaseOrder("PO-Alpha", "Acme", "1.00", entity.StatusDraft, testutil.Day(2024, 1, 1)))

	got, err := repo.GetByPONumber(ctx, "po-alpha")
	require.NoError(t, err)
	assert.Equal(t, "PO-Alpha", got.PONumber)

	_, err = repo.GetByPONumber(ctx, "po-beta")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_UniqueIndexRejectsCaseInsensitiveDuplicates(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()
	seed(t, repo, testutil.PurchaseOrder("PO-1", "Acme", "1.00", entity.StatusDraft, testutil.Day(2024, 1, 1)))

	err := repo.Create(ctx, testutil.PurchaseOrder("po-1", "Other", "2.00", entity.StatusDraft, testutil.Day(2024, 1, 1)))
	assert.ErrorIs(t, err, ErrDuplicatePONumber)

	second := testutil.PurchaseOrder("PO-2", "Acme", "1.00", entity.StatusDraft, testutil.Day(2024, 1, 1))
	seed(t, repo, second)
	second.PONumber = "PO-1"
	_, err = repo.Update(ctx, second)
	assert.ErrorIs(t, err, ErrDuplicatePONumber)
}

func TestRepository_UpdateAndDelete(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()
	po := testutil.PurchaseOrder("PO-1", "Acme", "10.00", entity.StatusDraft, testutil.Day(2024, 1, 1))
	seed(t, repo, po)

	po.SupplierName = "Acme Industrial"
	po.Status = entity.StatusShipped
	po.UpdatedAt = time.Now().UTC().Add(time.Second)
	changed, err := repo.Update(ctx, po)
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := repo.GetByID(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Industrial", got.SupplierName)
	assert.Equal(t, entity.StatusShipped, got.Status)

	missing := *po
	missing.ID = po.ID + 100
	changed, err = repo.Update(ctx, &missing)
	require.NoError(t, err)
	assert.False(t, changed)

	removed, err := repo.Delete(ctx, po.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Delete(ctx, po.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = repo.GetByID(ctx, po.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_QuerySortsByAmount(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()
	seed(t, repo,
		testutil.PurchaseOrder("PO-A", "Acme", "100.00", entity.StatusDraft, testutil.Day(2024, 1, 1)),
		testutil.PurchaseOrder("PO-B", "Acme", "50.50", entity.StatusDraft, testutil.Day(2024, 1, 2)),
		testutil.PurchaseOrder("PO-C", "Acme", "200.25", entity.StatusDraft, testutil.Day(2024, 1, 3)),
	)

	items, total, err := repo.Query(ctx, Filter{SortBy: "totalAmount", SortDir: "desc"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []string{"200.25", "100.00", "50.50"}, amounts(items))

	items, _, err = repo.Query(ctx, Filter{SortBy: "supplierName", SortDir: "desc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"PO-A", "PO-B", "PO-C"}, numbers(items))

	items, _, err = repo.Query(ctx, Filter{SortBy: "orderDate", SortDir: "DESC"})
	require.NoError(t, err)
	assert.Equal(t, []string{"PO-C", "PO-B", "PO-A"}, numbers(items))
}

func TestRepository_QueryTiesBreakOnID(t *testing.T) {
	repo := newRepository(t)
	day := testutil.Day(2024, 2, 1)
	seed(t, repo,
		testutil.PurchaseOrder("PO-3", "Acme", "1.00", entity.StatusDraft, day),
		testutil.PurchaseOrder("PO-1", "Acme", "1.00", entity.StatusDraft, day),
		testutil.PurchaseOrder("PO-2", "Acme", "1.00", entity.StatusDraft, day),
	)

	items, _, err := repo.Query(context.Background(), Filter{SortBy: "orderDate", SortDir: "desc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"PO-3", "PO-1", "PO-2"}, numbers(items))
}

func TestRepository_QueryPaging(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		seed(t, repo, testutil.PurchaseOrder(
			"PO-"+string(rune('A'+i)), "Acme", "1.00", entity.StatusDraft, testutil.Day(2024, 1, i+1),
		))
	}

	first, total, err := repo.Query(ctx, Filter{PageNumber: 1, PageSize: 10})
	require.NoError(t, err)
	zero, zeroTotal, err := repo.Query(ctx, Filter{PageNumber: 0, PageSize: 0})
	require.NoError(t, err)
	assert.EqualValues(t, 12, total)
	assert.Equal(t, total, zeroTotal)
	assert.Len(t, first, 10)
	assert.Equal(t, numbers(first), numbers(zero))

	second, _, err := repo.Query(ctx, Filter{PageNumber: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"PO-K", "PO-L"}, numbers(second))

	beyond, total, err := repo.Query(ctx, Filter{PageNumber: 9, PageSize: 5})
	require.NoError(t, err)
	assert.NotNil(t, beyond)
	assert.Empty(t, beyond)
	assert.EqualValues(t, 12, total)
}

func TestRepository_QueryHugePageParameters(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()
	seed(t, repo,
		testutil.PurchaseOrder("PO-1", "Acme", "1.00", entity.StatusDraft, testutil.Day(2024, 1, 1)),
		testutil.PurchaseOrder("PO-2", "Acme", "2.00", entity.StatusDraft, testutil.Day(2024, 1, 2)),
	)

	items, total, err := repo.Query(ctx, Filter{PageSize: 1 << 40})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []string{"PO-1", "PO-2"}, numbers(items))

	items, total, err = repo.Query(ctx, Filter{PageNumber: math.MaxInt, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Empty(t, items)

	items, _, err = repo.Query(ctx, Filter{PageNumber: math.MaxInt, PageSize: math.MaxInt})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRepository_QueryFiltersCompose(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()
	seed(t, repo,
		testutil.PurchaseOrder("PO-1", "Acme Supplies", "10.00", entity.StatusApproved, testutil.Day(2024, 3, 1)),
		testutil.PurchaseOrder("PO-2", "Acme Supplies", "20.00", entity.StatusDraft, testutil.Day(2024, 3, 10)),
		testutil.PurchaseOrder("PO-3", "Acme Supplies", "30.00", entity.StatusApproved, testutil.Day(2024, 4, 1)),
		testutil.PurchaseOrder("PO-4", "TechWorld", "40.00", entity.StatusApproved, testutil.Day(2024, 3, 5)),
		testutil.PurchaseOrder("PO-5", "100% Paper_Co", "50.00", entity.StatusCancelled, testutil.Day(2024, 3, 6)),
	)

	from := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 8, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no filters", Filter{}, []string{"PO-1", "PO-2", "PO-3", "PO-4", "PO-5"}},
		{"supplier substring", Filter{Supplier: "Supplies"}, []string{"PO-1", "PO-2", "PO-3"}},
		{"blank supplier ignored", Filter{Supplier: "   "}, []string{"PO-1", "PO-2", "PO-3", "PO-4", "PO-5"}},
		{"supplier wildcard literal", Filter{Supplier: "0% P"}, []string{"PO-5"}},
		{"underscore literal", Filter{Supplier: "r_C"}, []string{"PO-5"}},
		{"status", Filter{Status: entity.StatusApproved}, []string{"PO-1", "PO-3", "PO-4"}},
		{"inclusive date range truncated", Filter{DateFrom: &from, DateTo: &to}, []string{"PO-1", "PO-2", "PO-4", "PO-5"}},
		{"supplier and status", Filter{Supplier: "Acme", Status: entity.StatusApproved}, []string{"PO-1", "PO-3"}},
		{"all combined", Filter{Supplier: "Acme", Status: entity.StatusApproved, DateFrom: &from, DateTo: &to}, []string{"PO-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := repo.Query(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, numbers(items))
			assert.EqualValues(t, len(tt.want), total)
		})
	}
}
