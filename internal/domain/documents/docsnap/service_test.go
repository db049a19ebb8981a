package docsnap

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gespro/internal/core/apperror"
	"gespro/internal/core/id"
	"gespro/internal/domain"
	"gespro/internal/domain/documents/purchaseorder"
	"gespro/internal/domain/documents/sale"
	"gespro/pkg/numerator"
)

type memRepo struct {
	snaps map[id.ID]*Snapshot
}

func newMemRepo() *memRepo {
	return &memRepo{snaps: make(map[id.ID]*Snapshot)}
}

func (r *memRepo) Create(ctx context.Context, snap *Snapshot) error {
	cp := *snap
	r.snaps[snap.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, snapID id.ID) (*Snapshot, error) {
	snap, ok := r.snaps[snapID]
	if !ok {
		return nil, apperror.NewNotFound("snapshot", snapID)
	}
	cp := *snap
	return &cp, nil
}

func (r *memRepo) Delete(ctx context.Context, snapID id.ID) error {
	snap, ok := r.snaps[snapID]
	if !ok {
		return apperror.NewNotFound("snapshot", snapID)
	}
	snap.DeletionMark = true
	return nil
}

func (r *memRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Snapshot], error) {
	result := domain.ListResult[*Snapshot]{Limit: filter.Limit, Offset: filter.Offset}
	for _, snap := range r.snaps {
		if snap.DeletionMark && !filter.IncludeDeleted {
			continue
		}
		if filter.Type != nil && snap.Type != *filter.Type {
			continue
		}
		cp := *snap
		result.Items = append(result.Items, &cp)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

type seqRow struct {
	val int64
	err error
}

func (r *seqRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = r.val
		}
	}
	return nil
}

type seqQuerier struct {
	seqs map[string]int64
}

func (q *seqQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	key, _ := args[1].(string)
	incr := int64(1)
	if len(args) == 3 {
		if v, ok := args[2].(int64); ok {
			incr = v
		}
	}
	q.seqs[key] += incr
	return &seqRow{val: q.seqs[key]}
}

type passTx struct{}

func (passTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newFixture(t *testing.T) (*Service, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	num := numerator.New(&seqQuerier{seqs: make(map[string]int64)})
	return NewService(repo, num, passTx{}), repo
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func storedSnapshot(t *testing.T, repo *memRepo) *Snapshot {
	t.Helper()
	require.Len(t, repo.snaps, 1)
	for _, snap := range repo.snaps {
		return snap
	}
	return nil
}

func TestCreateFromSale_FreezesReceipt(t *testing.T) {
	svc, repo := newFixture(t)

	doc := sale.New()
	doc.Number = "VTE-2026-00007"
	doc.ClientName = "Acme"
	doc.AddItem(id.New(), "Savon", dec("2"), dec("500"))

	require.NoError(t, svc.CreateFromSale(context.Background(), doc))

	snap := storedSnapshot(t, repo)
	assert.Equal(t, TypeReceiptSale, snap.Type)
	assert.Equal(t, "VTE-2026-00007", snap.DocumentNumber)
	assert.Equal(t, "Acme", snap.PartyName)
	assert.True(t, snap.TotalAmount.Equal(dec("1000")))
	assert.Equal(t, fmt.Sprintf("REC-%d-00001", time.Now().Year()), snap.Number)

	var details DetailsPayload
	require.NoError(t, json.Unmarshal(snap.Details, &details))
	require.Len(t, details.Items, 1)
	assert.Equal(t, "Savon", details.Items[0].Name)
	assert.True(t, details.Items[0].Quantity.Equal(dec("2")))
	assert.True(t, details.Items[0].Price.Equal(dec("500")))
}

func TestCreateFromPurchaseOrder_FreezesReceipt(t *testing.T) {
	svc, repo := newFixture(t)

	doc := purchaseorder.New()
	doc.Number = "CMD-2026-00003"
	doc.SupplierName = "Grossiste Ouest"
	doc.AddItem(id.New(), "Farine T55", dec("100"), dec("450"))

	require.NoError(t, svc.CreateFromPurchaseOrder(context.Background(), doc))

	snap := storedSnapshot(t, repo)
	assert.Equal(t, TypeReceiptPurchase, snap.Type)
	assert.Equal(t, "CMD-2026-00003", snap.DocumentNumber)
	assert.Equal(t, "Grossiste Ouest", snap.PartyName)
	assert.True(t, snap.TotalAmount.Equal(dec("45000")))
	assert.Equal(t, fmt.Sprintf("REC-%d-00001", time.Now().Year()), snap.Number)
}

func TestCreate_NumbersSharedAcrossTypes(t *testing.T) {
	svc, repo := newFixture(t)
	ctx := context.Background()

	saleDoc := sale.New()
	saleDoc.Number = "VTE-2026-00001"
	saleDoc.ClientName = "Acme"
	saleDoc.AddItem(id.New(), "Savon", dec("1"), dec("500"))
	require.NoError(t, svc.CreateFromSale(ctx, saleDoc))

	orderDoc := purchaseorder.New()
	orderDoc.Number = "CMD-2026-00001"
	orderDoc.SupplierName = "Grossiste Ouest"
	orderDoc.AddItem(id.New(), "Farine T55", dec("10"), dec("450"))
	require.NoError(t, svc.CreateFromPurchaseOrder(ctx, orderDoc))

	// One REC sequence covers both receipt kinds.
	year := time.Now().Year()
	numbers := make(map[string]Type, 2)
	for _, snap := range repo.snaps {
		numbers[snap.Number] = snap.Type
	}
	assert.Equal(t, TypeReceiptSale, numbers[fmt.Sprintf("REC-%d-00001", year)])
	assert.Equal(t, TypeReceiptPurchase, numbers[fmt.Sprintf("REC-%d-00002", year)])
}

func TestList_FiltersByType(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	saleDoc := sale.New()
	saleDoc.Number = "VTE-2026-00001"
	saleDoc.ClientName = "Acme"
	saleDoc.AddItem(id.New(), "Savon", dec("1"), dec("500"))
	require.NoError(t, svc.CreateFromSale(ctx, saleDoc))

	orderDoc := purchaseorder.New()
	orderDoc.Number = "CMD-2026-00001"
	orderDoc.SupplierName = "Grossiste Ouest"
	orderDoc.AddItem(id.New(), "Farine T55", dec("10"), dec("450"))
	require.NoError(t, svc.CreateFromPurchaseOrder(ctx, orderDoc))

	saleType := TypeReceiptSale
	result, err := svc.List(ctx, ListFilter{Type: &saleType})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, TypeReceiptSale, result.Items[0].Type)
}
