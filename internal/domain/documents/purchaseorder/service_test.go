package purchaseorder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gespro/internal/core/apperror"
	"gespro/internal/core/id"
	"gespro/internal/domain"
	"gespro/internal/domain/catalogs/category"
	"gespro/internal/domain/catalogs/product"
	"gespro/internal/domain/catalogs/supplier"
	"gespro/pkg/numerator"
)

// memStore backs all test repositories; the transaction spy snapshots and
// restores it so a failed reception really leaves stock and lines untouched.
type memStore struct {
	orders     map[id.ID]*PurchaseOrder
	orderItems map[id.ID][]Item
	products   map[id.ID]*product.Product
	suppliers  map[id.ID]*supplier.Supplier
	categories map[id.ID]*category.Category
}

func newMemStore() *memStore {
	return &memStore{
		orders:     make(map[id.ID]*PurchaseOrder),
		orderItems: make(map[id.ID][]Item),
		products:   make(map[id.ID]*product.Product),
		suppliers:  make(map[id.ID]*supplier.Supplier),
		categories: make(map[id.ID]*category.Category),
	}
}

func (m *memStore) clone() *memStore {
	c := newMemStore()
	for k, v := range m.orders {
		cp := *v
		cp.Items = append([]Item(nil), v.Items...)
		c.orders[k] = &cp
	}
	for k, v := range m.orderItems {
		c.orderItems[k] = append([]Item(nil), v...)
	}
	for k, v := range m.products {
		cp := *v
		c.products[k] = &cp
	}
	for k, v := range m.suppliers {
		cp := *v
		c.suppliers[k] = &cp
	}
	for k, v := range m.categories {
		cp := *v
		c.categories[k] = &cp
	}
	return c
}

type txSpy struct {
	store *memStore
	depth int
}

func (t *txSpy) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.depth++
	defer func() { t.depth-- }()

	if t.depth > 1 {
		return fn(ctx)
	}

	snapshot := t.store.clone()
	if err := fn(ctx); err != nil {
		*t.store = *snapshot
		return err
	}
	return nil
}

// --- numerator querier double ---

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

// --- repositories ---

type orderRepo struct {
	store *memStore
}

func (r *orderRepo) Create(ctx context.Context, doc *PurchaseOrder) error {
	if _, ok := r.store.orders[doc.ID]; ok {
		return apperror.NewDuplicate("purchase order", "number", doc.Number)
	}
	cp := *doc
	cp.Items = nil
	r.store.orders[doc.ID] = &cp
	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, docID id.ID) (*PurchaseOrder, error) {
	doc, ok := r.store.orders[docID]
	if !ok {
		return nil, apperror.NewNotFound("purchase order", docID)
	}
	cp := *doc
	return &cp, nil
}

func (r *orderRepo) GetByNumber(ctx context.Context, number string) (*PurchaseOrder, error) {
	for _, doc := range r.store.orders {
		if doc.Number == number {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("purchase order", number)
}

func (r *orderRepo) Update(ctx context.Context, doc *PurchaseOrder) error {
	if _, ok := r.store.orders[doc.ID]; !ok {
		return apperror.NewNotFound("purchase order", doc.ID)
	}
	cp := *doc
	cp.Items = nil
	r.store.orders[doc.ID] = &cp
	return nil
}

func (r *orderRepo) Delete(ctx context.Context, docID id.ID) error {
	doc, ok := r.store.orders[docID]
	if !ok {
		return apperror.NewNotFound("purchase order", docID)
	}
	doc.DeletionMark = true
	return nil
}

func (r *orderRepo) GetForUpdate(ctx context.Context, docID id.ID) (*PurchaseOrder, error) {
	return r.GetByID(ctx, docID)
}

func (r *orderRepo) GetItems(ctx context.Context, docID id.ID) ([]Item, error) {
	return append([]Item(nil), r.store.orderItems[docID]...), nil
}

func (r *orderRepo) SaveItems(ctx context.Context, docID id.ID, items []Item) error {
	r.store.orderItems[docID] = append([]Item(nil), items...)
	return nil
}

func (r *orderRepo) UpdateItemReceived(ctx context.Context, lineID id.ID, receivedQty decimal.Decimal) error {
	for docID, items := range r.store.orderItems {
		for i := range items {
			if items[i].LineID == lineID {
				r.store.orderItems[docID][i].ReceivedQty = receivedQty
				return nil
			}
		}
	}
	return apperror.NewNotFound("order item", lineID)
}

func (r *orderRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*PurchaseOrder], error) {
	result := domain.ListResult[*PurchaseOrder]{Limit: filter.Limit, Offset: filter.Offset}
	for _, doc := range r.store.orders {
		if doc.DeletionMark && !filter.IncludeDeleted {
			continue
		}
		cp := *doc
		result.Items = append(result.Items, &cp)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

type productRepo struct {
	store      *memStore
	failAdjust error
}

func (r *productRepo) Create(ctx context.Context, p *product.Product) error {
	cp := *p
	r.store.products[p.ID] = &cp
	return nil
}

func (r *productRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	p, ok := r.store.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	cp := *p
	return &cp, nil
}

func (r *productRepo) GetByCode(ctx context.Context, code string) (*product.Product, error) {
	for _, p := range r.store.products {
		if p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("product", code)
}

func (r *productRepo) FindByName(ctx context.Context, name string) (*product.Product, error) {
	for _, p := range r.store.products {
		if !p.DeletionMark && strings.EqualFold(p.Name, name) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("product", name)
}

func (r *productRepo) Update(ctx context.Context, p *product.Product) error {
	if _, ok := r.store.products[p.ID]; !ok {
		return apperror.NewNotFound("product", p.ID)
	}
	cp := *p
	r.store.products[p.ID] = &cp
	return nil
}

func (r *productRepo) Delete(ctx context.Context, productID id.ID) error {
	return r.SetDeletionMark(ctx, productID, true)
}

func (r *productRepo) SetDeletionMark(ctx context.Context, productID id.ID, marked bool) error {
	p, ok := r.store.products[productID]
	if !ok {
		return apperror.NewNotFound("product", productID)
	}
	p.DeletionMark = marked
	return nil
}

func (r *productRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	return domain.ListResult[*product.Product]{}, nil
}

func (r *productRepo) Exists(ctx context.Context, productID id.ID) (bool, error) {
	_, ok := r.store.products[productID]
	return ok, nil
}

func (r *productRepo) GetForUpdate(ctx context.Context, productID id.ID) (*product.Product, error) {
	return r.GetByID(ctx, productID)
}

func (r *productRepo) AdjustQuantity(ctx context.Context, productID id.ID, delta decimal.Decimal) (decimal.Decimal, error) {
	if r.failAdjust != nil {
		return decimal.Zero, r.failAdjust
	}
	p, ok := r.store.products[productID]
	if !ok {
		return decimal.Zero, apperror.NewNotFound("product", productID)
	}
	p.Quantity = p.Quantity.Add(delta)
	return p.Quantity, nil
}

func (r *productRepo) FindLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	return domain.ListResult[*product.Product]{}, nil
}

func (r *productRepo) CountLowStock(ctx context.Context) (int64, error) {
	return 0, nil
}

type supplierRepo struct {
	store *memStore
}

func (r *supplierRepo) Create(ctx context.Context, s *supplier.Supplier) error {
	cp := *s
	r.store.suppliers[s.ID] = &cp
	return nil
}

func (r *supplierRepo) GetByID(ctx context.Context, supplierID id.ID) (*supplier.Supplier, error) {
	s, ok := r.store.suppliers[supplierID]
	if !ok {
		return nil, apperror.NewNotFound("supplier", supplierID)
	}
	cp := *s
	return &cp, nil
}

func (r *supplierRepo) GetByCode(ctx context.Context, code string) (*supplier.Supplier, error) {
	for _, s := range r.store.suppliers {
		if s.Code == code {
			cp := *s
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("supplier", code)
}

func (r *supplierRepo) FindByName(ctx context.Context, name string) (*supplier.Supplier, error) {
	for _, s := range r.store.suppliers {
		if !s.DeletionMark && strings.EqualFold(s.Name, name) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("supplier", name)
}

func (r *supplierRepo) Update(ctx context.Context, s *supplier.Supplier) error {
	if _, ok := r.store.suppliers[s.ID]; !ok {
		return apperror.NewNotFound("supplier", s.ID)
	}
	cp := *s
	r.store.suppliers[s.ID] = &cp
	return nil
}

func (r *supplierRepo) Delete(ctx context.Context, supplierID id.ID) error {
	return r.SetDeletionMark(ctx, supplierID, true)
}

func (r *supplierRepo) SetDeletionMark(ctx context.Context, supplierID id.ID, marked bool) error {
	s, ok := r.store.suppliers[supplierID]
	if !ok {
		return apperror.NewNotFound("supplier", supplierID)
	}
	s.DeletionMark = marked
	return nil
}

func (r *supplierRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*supplier.Supplier], error) {
	return domain.ListResult[*supplier.Supplier]{}, nil
}

func (r *supplierRepo) Exists(ctx context.Context, supplierID id.ID) (bool, error) {
	_, ok := r.store.suppliers[supplierID]
	return ok, nil
}

type categoryRepo struct {
	store *memStore
}

func (r *categoryRepo) Create(ctx context.Context, c *category.Category) error {
	cp := *c
	r.store.categories[c.ID] = &cp
	return nil
}

func (r *categoryRepo) GetByID(ctx context.Context, categoryID id.ID) (*category.Category, error) {
	c, ok := r.store.categories[categoryID]
	if !ok {
		return nil, apperror.NewNotFound("category", categoryID)
	}
	cp := *c
	return &cp, nil
}

func (r *categoryRepo) GetByCode(ctx context.Context, code string) (*category.Category, error) {
	for _, c := range r.store.categories {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("category", code)
}

func (r *categoryRepo) FindByName(ctx context.Context, name string) (*category.Category, error) {
	for _, c := range r.store.categories {
		if !c.DeletionMark && strings.EqualFold(c.Name, name) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("category", name)
}

func (r *categoryRepo) Update(ctx context.Context, c *category.Category) error {
	if _, ok := r.store.categories[c.ID]; !ok {
		return apperror.NewNotFound("category", c.ID)
	}
	cp := *c
	r.store.categories[c.ID] = &cp
	return nil
}

func (r *categoryRepo) Delete(ctx context.Context, categoryID id.ID) error {
	return r.SetDeletionMark(ctx, categoryID, true)
}

func (r *categoryRepo) SetDeletionMark(ctx context.Context, categoryID id.ID, marked bool) error {
	c, ok := r.store.categories[categoryID]
	if !ok {
		return apperror.NewNotFound("category", categoryID)
	}
	c.DeletionMark = marked
	return nil
}

func (r *categoryRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*category.Category], error) {
	return domain.ListResult[*category.Category]{}, nil
}

func (r *categoryRepo) Exists(ctx context.Context, categoryID id.ID) (bool, error) {
	_, ok := r.store.categories[categoryID]
	return ok, nil
}

type snapshotRecorder struct {
	calls int
	err   error
}

func (r *snapshotRecorder) CreateFromPurchaseOrder(ctx context.Context, doc *PurchaseOrder) error {
	if r.err != nil {
		return r.err
	}
	r.calls++
	return nil
}

// --- fixture ---

type fixture struct {
	store     *memStore
	products  *productRepo
	snapshots *snapshotRecorder
	svc       *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newMemStore()
	txm := &txSpy{store: store}
	num := numerator.New(&seqQuerier{seqs: make(map[string]int64)})

	prodRepo := &productRepo{store: store}
	suppliers := supplier.NewService(&supplierRepo{store: store}, txm, num)
	categories := category.NewService(&categoryRepo{store: store}, txm, num)
	products := product.NewService(prodRepo, txm, num)

	snaps := &snapshotRecorder{}
	svc := NewService(&orderRepo{store: store}, suppliers, products, categories, num, txm).
		WithSnapshots(snaps)

	return &fixture{
		store:     store,
		products:  prodRepo,
		snapshots: snaps,
		svc:       svc,
	}
}

func (f *fixture) seedProduct(name string, quantity decimal.Decimal) *product.Product {
	p := product.New(name)
	p.Code = "PRD-SEED-" + name
	p.Quantity = quantity
	f.store.products[p.ID] = p
	return p
}

func (f *fixture) seedSupplier(name string) *supplier.Supplier {
	s := supplier.New(name)
	s.Code = "FRN-SEED"
	f.store.suppliers[s.ID] = s
	return s
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func idPtr(v id.ID) *id.ID {
	return &v
}

// --- Create ---

func TestCreate_CommitsWithoutMovingStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sup := f.seedSupplier("Grossiste Ouest")
	p := f.seedProduct("Café moulu", dec("10"))

	doc, err := f.svc.Create(ctx, Draft{
		SupplierID: idPtr(sup.ID),
		Items: []DraftItem{
			{ProductID: idPtr(p.ID), Quantity: dec("50"), UnitPrice: dec("1800")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusOrdered, doc.Status)
	assert.True(t, doc.TotalAmount.Equal(dec("90000")))
	assert.Equal(t, fmt.Sprintf("CMD-%d-00001", time.Now().Year()), doc.Number)
	assert.Equal(t, sup.ID, doc.SupplierID)
	assert.Equal(t, "Grossiste Ouest", doc.SupplierName)

	// Ordering does not touch stock.
	assert.True(t, f.store.products[p.ID].Quantity.Equal(dec("10")))

	require.Len(t, f.store.orderItems[doc.ID], 1)
	assert.True(t, f.store.orderItems[doc.ID][0].ReceivedQty.IsZero())
	assert.Equal(t, 1, f.snapshots.calls)
}

func TestCreate_ResolvesSupplierAndProductInline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.svc.Create(ctx, Draft{
		SupplierName: "Nouveau Grossiste",
		Items: []DraftItem{{
			ProductName:  "Farine T55",
			CategoryName: "Épicerie",
			Quantity:     dec("100"),
			UnitPrice:    dec("450"),
		}},
	})
	require.NoError(t, err)

	require.Len(t, f.store.suppliers, 1)
	var sup *supplier.Supplier
	for _, s := range f.store.suppliers {
		sup = s
	}
	assert.Equal(t, "Nouveau Grossiste", sup.Name)
	assert.Equal(t, sup.ID, doc.SupplierID)

	require.Len(t, f.store.products, 1)
	require.Len(t, f.store.categories, 1)
	var created *product.Product
	for _, p := range f.store.products {
		created = p
	}
	// An inline product seeded from an order carries the purchase price, not
	// the sale price, and starts at zero stock until reception.
	assert.True(t, created.PurchasePrice.Equal(dec("450")))
	assert.True(t, created.SalePrice.IsZero())
	assert.True(t, created.Quantity.IsZero())
	require.NotNil(t, created.CategoryID)
}

func TestCreate_RequiresItems(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), Draft{SupplierName: "Grossiste"})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Empty(t, f.store.orders)
}

// --- Receive ---

// orderedFixture commits an order of 50 + 20 units across two lines.
func orderedFixture(t *testing.T) (*fixture, *PurchaseOrder, *product.Product, *product.Product) {
	t.Helper()
	f := newFixture(t)

	sup := f.seedSupplier("Grossiste Ouest")
	coffee := f.seedProduct("Café moulu", dec("10"))
	flour := f.seedProduct("Farine T55", dec("5"))

	doc, err := f.svc.Create(context.Background(), Draft{
		SupplierID: idPtr(sup.ID),
		Items: []DraftItem{
			{ProductID: idPtr(coffee.ID), Quantity: dec("50"), UnitPrice: dec("1800")},
			{ProductID: idPtr(flour.ID), Quantity: dec("20"), UnitPrice: dec("450")},
		},
	})
	require.NoError(t, err)
	return f, doc, coffee, flour
}

func TestReceive_PartialThenFull(t *testing.T) {
	f, doc, coffee, flour := orderedFixture(t)
	ctx := context.Background()
	items := f.store.orderItems[doc.ID]

	// First reception: part of line 1 only.
	doc, err := f.svc.Receive(ctx, doc.ID, []ReceiptLine{
		{ItemID: items[0].LineID, Quantity: dec("30")},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPartiallyReceived, doc.Status)
	assert.True(t, f.store.products[coffee.ID].Quantity.Equal(dec("40")))
	assert.True(t, f.store.orderItems[doc.ID][0].ReceivedQty.Equal(dec("30")))

	// Second reception: the rest of both lines.
	doc, err = f.svc.Receive(ctx, doc.ID, []ReceiptLine{
		{ItemID: items[0].LineID, Quantity: dec("20")},
		{ItemID: items[1].LineID, Quantity: dec("20")},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, doc.Status)
	assert.True(t, f.store.products[coffee.ID].Quantity.Equal(dec("60")))
	assert.True(t, f.store.products[flour.ID].Quantity.Equal(dec("25")))

	// A fully received order accepts no further reception.
	_, err = f.svc.Receive(ctx, doc.ID, []ReceiptLine{
		{ItemID: items[0].LineID, Quantity: dec("1")},
	})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeOrderFullyReceived, appErr.Code)
}

func TestReceive_ClampsToOutstanding(t *testing.T) {
	f, doc, coffee, flour := orderedFixture(t)
	items := f.store.orderItems[doc.ID]

	// Over-reception on line 1 clamps to the 50 ordered; the negative entry
	// on line 2 counts as zero.
	doc, err := f.svc.Receive(context.Background(), doc.ID, []ReceiptLine{
		{ItemID: items[0].LineID, Quantity: dec("999")},
		{ItemID: items[1].LineID, Quantity: dec("-3")},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPartiallyReceived, doc.Status)
	assert.True(t, f.store.orderItems[doc.ID][0].ReceivedQty.Equal(dec("50")))
	assert.True(t, f.store.orderItems[doc.ID][1].ReceivedQty.IsZero())
	assert.True(t, f.store.products[coffee.ID].Quantity.Equal(dec("60")))
	assert.True(t, f.store.products[flour.ID].Quantity.Equal(dec("5")))
}

func TestReceive_UnknownLineRejected(t *testing.T) {
	f, doc, _, _ := orderedFixture(t)

	_, err := f.svc.Receive(context.Background(), doc.ID, []ReceiptLine{
		{ItemID: id.New(), Quantity: dec("1")},
	})

	assert.True(t, apperror.IsNotFound(err))
}

func TestReceive_RequiresLines(t *testing.T) {
	f, doc, _, _ := orderedFixture(t)

	_, err := f.svc.Receive(context.Background(), doc.ID, nil)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestReceive_StockFailureRollsBack(t *testing.T) {
	f, doc, coffee, _ := orderedFixture(t)
	f.products.failAdjust = errors.New("deadlock detected")
	items := f.store.orderItems[doc.ID]

	_, err := f.svc.Receive(context.Background(), doc.ID, []ReceiptLine{
		{ItemID: items[0].LineID, Quantity: dec("30")},
	})
	require.Error(t, err)

	// Line quantities and order status are untouched alongside the stock.
	assert.True(t, f.store.orderItems[doc.ID][0].ReceivedQty.IsZero())
	assert.Equal(t, StatusOrdered, f.store.orders[doc.ID].Status)
	assert.True(t, f.store.products[coffee.ID].Quantity.Equal(dec("10")))
}

// --- GetByID ---

func TestGetByID_LoadsItems(t *testing.T) {
	f, doc, _, _ := orderedFixture(t)

	loaded, err := f.svc.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	assert.True(t, loaded.TotalAmount.Equal(dec("99000")))

	_, err = f.svc.GetByID(context.Background(), id.New())
	assert.True(t, apperror.IsNotFound(err))
}
