package sale

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
	"gespro/internal/domain/catalogs/client"
	"gespro/internal/domain/catalogs/product"
	"gespro/pkg/numerator"
)

// memStore backs all test repositories. The transaction spy snapshots and
// restores it, so a rolled-back commit really leaves no trace.
type memStore struct {
	sales      map[id.ID]*Sale
	saleItems  map[id.ID][]Item
	products   map[id.ID]*product.Product
	clients    map[id.ID]*client.Client
	categories map[id.ID]*category.Category
}

func newMemStore() *memStore {
	return &memStore{
		sales:      make(map[id.ID]*Sale),
		saleItems:  make(map[id.ID][]Item),
		products:   make(map[id.ID]*product.Product),
		clients:    make(map[id.ID]*client.Client),
		categories: make(map[id.ID]*category.Category),
	}
}

func (m *memStore) clone() *memStore {
	c := newMemStore()
	for k, v := range m.sales {
		cp := *v
		cp.Items = append([]Item(nil), v.Items...)
		c.sales[k] = &cp
	}
	for k, v := range m.saleItems {
		c.saleItems[k] = append([]Item(nil), v...)
	}
	for k, v := range m.products {
		cp := *v
		c.products[k] = &cp
	}
	for k, v := range m.clients {
		cp := *v
		c.clients[k] = &cp
	}
	for k, v := range m.categories {
		cp := *v
		c.categories[k] = &cp
	}
	return c
}

// txSpy implements tx.Manager over the memStore. The outermost call snapshots
// the store and restores it on error; nested calls join the ambient
// transaction like savepoint-free participation in the real manager.
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

type saleRepo struct {
	store *memStore
}

func (r *saleRepo) Create(ctx context.Context, doc *Sale) error {
	if _, ok := r.store.sales[doc.ID]; ok {
		return apperror.NewDuplicate("sale", "number", doc.Number)
	}
	cp := *doc
	cp.Items = nil
	r.store.sales[doc.ID] = &cp
	return nil
}

func (r *saleRepo) GetByID(ctx context.Context, docID id.ID) (*Sale, error) {
	doc, ok := r.store.sales[docID]
	if !ok {
		return nil, apperror.NewNotFound("sale", docID)
	}
	cp := *doc
	return &cp, nil
}

func (r *saleRepo) GetByNumber(ctx context.Context, number string) (*Sale, error) {
	for _, doc := range r.store.sales {
		if doc.Number == number {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("sale", number)
}

func (r *saleRepo) Update(ctx context.Context, doc *Sale) error {
	if _, ok := r.store.sales[doc.ID]; !ok {
		return apperror.NewNotFound("sale", doc.ID)
	}
	cp := *doc
	cp.Items = nil
	r.store.sales[doc.ID] = &cp
	return nil
}

func (r *saleRepo) Delete(ctx context.Context, docID id.ID) error {
	doc, ok := r.store.sales[docID]
	if !ok {
		return apperror.NewNotFound("sale", docID)
	}
	doc.DeletionMark = true
	return nil
}

func (r *saleRepo) GetForUpdate(ctx context.Context, docID id.ID) (*Sale, error) {
	return r.GetByID(ctx, docID)
}

func (r *saleRepo) GetItems(ctx context.Context, docID id.ID) ([]Item, error) {
	return append([]Item(nil), r.store.saleItems[docID]...), nil
}

func (r *saleRepo) SaveItems(ctx context.Context, docID id.ID, items []Item) error {
	r.store.saleItems[docID] = append([]Item(nil), items...)
	return nil
}

func (r *saleRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error) {
	result := domain.ListResult[*Sale]{Limit: filter.Limit, Offset: filter.Offset}
	for _, doc := range r.store.sales {
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

type clientRepo struct {
	store *memStore
}

func (r *clientRepo) Create(ctx context.Context, c *client.Client) error {
	cp := *c
	r.store.clients[c.ID] = &cp
	return nil
}

func (r *clientRepo) GetByID(ctx context.Context, clientID id.ID) (*client.Client, error) {
	c, ok := r.store.clients[clientID]
	if !ok {
		return nil, apperror.NewNotFound("client", clientID)
	}
	cp := *c
	return &cp, nil
}

func (r *clientRepo) GetByCode(ctx context.Context, code string) (*client.Client, error) {
	for _, c := range r.store.clients {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("client", code)
}

func (r *clientRepo) FindByName(ctx context.Context, name string) (*client.Client, error) {
	for _, c := range r.store.clients {
		if !c.DeletionMark && strings.EqualFold(c.Name, name) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("client", name)
}

func (r *clientRepo) Update(ctx context.Context, c *client.Client) error {
	if _, ok := r.store.clients[c.ID]; !ok {
		return apperror.NewNotFound("client", c.ID)
	}
	cp := *c
	r.store.clients[c.ID] = &cp
	return nil
}

func (r *clientRepo) Delete(ctx context.Context, clientID id.ID) error {
	return r.SetDeletionMark(ctx, clientID, true)
}

func (r *clientRepo) SetDeletionMark(ctx context.Context, clientID id.ID, marked bool) error {
	c, ok := r.store.clients[clientID]
	if !ok {
		return apperror.NewNotFound("client", clientID)
	}
	c.DeletionMark = marked
	return nil
}

func (r *clientRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*client.Client], error) {
	return domain.ListResult[*client.Client]{}, nil
}

func (r *clientRepo) Exists(ctx context.Context, clientID id.ID) (bool, error) {
	_, ok := r.store.clients[clientID]
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

// --- post-commit collaborators ---

type snapshotRecorder struct {
	calls int
	last  *Sale
	err   error
}

func (r *snapshotRecorder) CreateFromSale(ctx context.Context, doc *Sale) error {
	if r.err != nil {
		return r.err
	}
	r.calls++
	r.last = doc
	return nil
}

type lowStockNote struct {
	name      string
	remaining decimal.Decimal
}

type notifierRecorder struct {
	notes []lowStockNote
}

func (r *notifierRecorder) LowStock(ctx context.Context, p *product.Product, remaining decimal.Decimal) error {
	r.notes = append(r.notes, lowStockNote{name: p.Name, remaining: remaining})
	return nil
}

// --- fixture ---

type fixture struct {
	store     *memStore
	tx        *txSpy
	products  *productRepo
	snapshots *snapshotRecorder
	notifier  *notifierRecorder
	svc       *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newMemStore()
	txm := &txSpy{store: store}
	num := numerator.New(&seqQuerier{seqs: make(map[string]int64)})

	prodRepo := &productRepo{store: store}
	clients := client.NewService(&clientRepo{store: store}, txm, num)
	categories := category.NewService(&categoryRepo{store: store}, txm, num)
	products := product.NewService(prodRepo, txm, num)

	snaps := &snapshotRecorder{}
	notes := &notifierRecorder{}
	svc := NewService(&saleRepo{store: store}, clients, products, categories, num, txm).
		WithSnapshots(snaps).
		WithNotifier(notes)

	return &fixture{
		store:     store,
		tx:        txm,
		products:  prodRepo,
		snapshots: snaps,
		notifier:  notes,
		svc:       svc,
	}
}

func (f *fixture) seedProduct(name string, price, quantity, threshold decimal.Decimal) *product.Product {
	p := product.New(name)
	p.Code = "PRD-SEED-" + name
	p.SalePrice = price
	p.Quantity = quantity
	p.AlertThreshold = threshold
	f.store.products[p.ID] = p
	return p
}

func (f *fixture) seedClient(name string) *client.Client {
	c := client.New(name)
	c.Code = "CLI-SEED"
	f.store.clients[c.ID] = c
	return c
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func idPtr(v id.ID) *id.ID {
	return &v
}

// --- Create ---

func TestCreate_RecomputesTotalFromItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cl := f.seedClient("Dupont SARL")
	coffee := f.seedProduct("Café moulu", dec("2500"), dec("20"), decimal.Zero)
	sugar := f.seedProduct("Sucre", dec("600"), dec("50"), decimal.Zero)

	doc, err := f.svc.Create(ctx, Draft{
		ClientID: idPtr(cl.ID),
		Items: []DraftItem{
			{ProductID: idPtr(coffee.ID), Quantity: dec("3"), UnitPrice: dec("2500")},
			{ProductID: idPtr(sugar.ID), Quantity: dec("2"), UnitPrice: dec("600")},
		},
	})
	require.NoError(t, err)

	assert.True(t, doc.TotalAmount.Equal(dec("8700")), "total = sum of line amounts, got %s", doc.TotalAmount)
	assert.Equal(t, StatusPending, doc.Status)
	assert.True(t, doc.AmountPaid.IsZero())
	assert.Equal(t, cl.ID, doc.ClientID)
	assert.Equal(t, "Dupont SARL", doc.ClientName)
	assert.Equal(t, fmt.Sprintf("VTE-%d-00001", time.Now().Year()), doc.Number)

	require.Len(t, doc.Items, 2)
	assert.Equal(t, 1, doc.Items[0].LineNo)
	assert.True(t, doc.Items[0].Amount.Equal(dec("7500")))
	assert.True(t, doc.Items[1].Amount.Equal(dec("1200")))

	// Persisted state matches the returned document.
	stored, ok := f.store.sales[doc.ID]
	require.True(t, ok)
	assert.True(t, stored.TotalAmount.Equal(dec("8700")))
	assert.Len(t, f.store.saleItems[doc.ID], 2)

	// Stock moved inside the same commit.
	assert.True(t, f.store.products[coffee.ID].Quantity.Equal(dec("17")))
	assert.True(t, f.store.products[sugar.ID].Quantity.Equal(dec("48")))

	assert.Equal(t, 1, f.snapshots.calls)
}

func TestCreate_NumbersAreSequential(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cl := f.seedClient("Dupont SARL")
	p := f.seedProduct("Café moulu", dec("2500"), dec("20"), decimal.Zero)
	draft := Draft{
		ClientID: idPtr(cl.ID),
		Items:    []DraftItem{{ProductID: idPtr(p.ID), Quantity: dec("1"), UnitPrice: dec("2500")}},
	}

	first, err := f.svc.Create(ctx, draft)
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, draft)
	require.NoError(t, err)

	year := time.Now().Year()
	assert.Equal(t, fmt.Sprintf("VTE-%d-00001", year), first.Number)
	assert.Equal(t, fmt.Sprintf("VTE-%d-00002", year), second.Number)
}

func TestCreate_ResolvesClientAndProductInline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.svc.Create(ctx, Draft{
		ClientName: "  Acme  ",
		Items: []DraftItem{{
			ProductName:  "Thé vert",
			CategoryName: "Boissons",
			Quantity:     dec("2"),
			UnitPrice:    dec("1500"),
		}},
	})
	require.NoError(t, err)

	// Client was created from the trimmed name.
	require.Len(t, f.store.clients, 1)
	var createdClient *client.Client
	for _, c := range f.store.clients {
		createdClient = c
	}
	assert.Equal(t, "Acme", createdClient.Name)
	assert.NotEmpty(t, createdClient.Code)
	assert.Equal(t, createdClient.ID, doc.ClientID)

	// Product was created with the sale price and a freshly created category.
	require.Len(t, f.store.products, 1)
	require.Len(t, f.store.categories, 1)
	var createdProduct *product.Product
	for _, p := range f.store.products {
		createdProduct = p
	}
	assert.Equal(t, "Thé vert", createdProduct.Name)
	assert.True(t, createdProduct.SalePrice.Equal(dec("1500")))
	require.NotNil(t, createdProduct.CategoryID)
	_, ok := f.store.categories[*createdProduct.CategoryID]
	assert.True(t, ok)

	// The new product started at zero stock, so the sale drove it negative
	// and tripped the low stock alert.
	assert.True(t, f.store.products[createdProduct.ID].Quantity.Equal(dec("-2")))

	// A second sale naming the same client and product in a different case
	// reuses both rows instead of duplicating them.
	_, err = f.svc.Create(ctx, Draft{
		ClientName: "ACME",
		Items:      []DraftItem{{ProductName: "THÉ VERT", Quantity: dec("1"), UnitPrice: dec("1500")}},
	})
	require.NoError(t, err)
	assert.Len(t, f.store.clients, 1)
	assert.Len(t, f.store.products, 1)
	assert.Len(t, f.store.categories, 1)
}

func TestCreate_RequiresItems(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), Draft{ClientName: "Acme"})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Empty(t, f.store.sales)
}

func TestCreate_RejectsNonSellableProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.seedProduct("Carton d'emballage", dec("200"), dec("50"), decimal.Zero)
	p.IsSellable = false

	// By ID.
	_, err := f.svc.Create(ctx, Draft{
		ClientName: "Acme",
		Items:      []DraftItem{{ProductID: idPtr(p.ID), Quantity: dec("1"), UnitPrice: dec("200")}},
	})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)

	// By name, matching the same existing row.
	_, err = f.svc.Create(ctx, Draft{
		ClientName: "Acme",
		Items:      []DraftItem{{ProductName: "carton d'emballage", Quantity: dec("1"), UnitPrice: dec("200")}},
	})
	appErr, ok = apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)

	// Nothing persisted, stock untouched.
	assert.Empty(t, f.store.sales)
	assert.True(t, f.store.products[p.ID].Quantity.Equal(dec("50")))
}

func TestCreate_RejectsCancelledStatus(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("Café moulu", dec("2500"), dec("20"), decimal.Zero)

	_, err := f.svc.Create(context.Background(), Draft{
		ClientName: "Acme",
		Status:     StatusCancelled,
		Items:      []DraftItem{{ProductID: idPtr(p.ID), Quantity: dec("1"), UnitPrice: dec("2500")}},
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCreate_PaidStatusSettlesInFull(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("Café moulu", dec("2500"), dec("20"), decimal.Zero)

	doc, err := f.svc.Create(context.Background(), Draft{
		ClientName: "Acme",
		Status:     StatusPaid,
		// Any caller-provided amount is ignored for Payée.
		AmountPaid: dec("1"),
		Items:      []DraftItem{{ProductID: idPtr(p.ID), Quantity: dec("2"), UnitPrice: dec("2500")}},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPaid, doc.Status)
	assert.True(t, doc.AmountPaid.Equal(dec("5000")))
	assert.True(t, doc.Outstanding().IsZero())
}

func TestCreate_PartialClampsAndPromotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.seedProduct("Café moulu", dec("2500"), dec("100"), decimal.Zero)

	draft := func(amountPaid string) Draft {
		return Draft{
			ClientName: "Acme",
			Status:     StatusPartial,
			AmountPaid: dec(amountPaid),
			Items:      []DraftItem{{ProductID: idPtr(p.ID), Quantity: dec("2"), UnitPrice: dec("2500")}},
		}
	}

	partial, err := f.svc.Create(ctx, draft("2000"))
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, partial.Status)
	assert.True(t, partial.AmountPaid.Equal(dec("2000")))

	// Overpayment clamps to the total and the sale comes out paid.
	overpaid, err := f.svc.Create(ctx, draft("99999"))
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, overpaid.Status)
	assert.True(t, overpaid.AmountPaid.Equal(dec("5000")))
}

func TestCreate_StockFailureRollsBackEverything(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("Café moulu", dec("2500"), dec("20"), decimal.Zero)
	f.products.failAdjust = errors.New("deadlock detected")

	_, err := f.svc.Create(context.Background(), Draft{
		ClientName: "Nouveau Client",
		Items:      []DraftItem{{ProductID: idPtr(p.ID), Quantity: dec("3"), UnitPrice: dec("2500")}},
	})
	require.Error(t, err)

	// Nothing survives the abort: no document, no items, no inline client,
	// untouched stock, no snapshot.
	assert.Empty(t, f.store.sales)
	assert.Empty(t, f.store.saleItems)
	assert.Empty(t, f.store.clients)
	assert.True(t, f.store.products[p.ID].Quantity.Equal(dec("20")))
	assert.Equal(t, 0, f.snapshots.calls)
}

func TestCreate_SnapshotFailureKeepsSale(t *testing.T) {
	f := newFixture(t)
	f.snapshots.err = errors.New("snapshot store unavailable")
	p := f.seedProduct("Café moulu", dec("2500"), dec("20"), decimal.Zero)

	doc, err := f.svc.Create(context.Background(), Draft{
		ClientName: "Acme",
		Items:      []DraftItem{{ProductID: idPtr(p.ID), Quantity: dec("1"), UnitPrice: dec("2500")}},
	})
	require.NoError(t, err)

	_, ok := f.store.sales[doc.ID]
	assert.True(t, ok, "sale stands even when the receipt snapshot fails")
}

func TestCreate_NotifiesLowStock(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("Café moulu", dec("2500"), dec("5"), dec("4"))

	_, err := f.svc.Create(context.Background(), Draft{
		ClientName: "Acme",
		Items:      []DraftItem{{ProductID: idPtr(p.ID), Quantity: dec("2"), UnitPrice: dec("2500")}},
	})
	require.NoError(t, err)

	require.Len(t, f.notifier.notes, 1)
	assert.Equal(t, "Café moulu", f.notifier.notes[0].name)
	assert.True(t, f.notifier.notes[0].remaining.Equal(dec("3")))
}

// --- RecordPayment ---

func committedSale(t *testing.T, f *fixture, total string) *Sale {
	t.Helper()
	p := f.seedProduct("Produit "+total, dec(total), dec("100"), decimal.Zero)
	doc, err := f.svc.Create(context.Background(), Draft{
		ClientName: "Acme",
		Items:      []DraftItem{{ProductID: idPtr(p.ID), Quantity: dec("1"), UnitPrice: dec(total)}},
	})
	require.NoError(t, err)
	return doc
}

func TestRecordPayment_AccumulatesAndDerivesStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := committedSale(t, f, "100")

	doc, err := f.svc.RecordPayment(ctx, doc.ID, dec("40"), "")
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, doc.Status)
	assert.True(t, doc.AmountPaid.Equal(dec("40")))

	doc, err = f.svc.RecordPayment(ctx, doc.ID, dec("60"), "")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, doc.Status)
	assert.True(t, doc.AmountPaid.Equal(dec("100")))

	// A further payment on a settled sale is rejected.
	_, err = f.svc.RecordPayment(ctx, doc.ID, dec("10"), "")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePaymentExceedsTotal, appErr.Code)
}

func TestRecordPayment_ClampsOverpayment(t *testing.T) {
	f := newFixture(t)
	doc := committedSale(t, f, "100")

	doc, err := f.svc.RecordPayment(context.Background(), doc.ID, dec("250"), "")
	require.NoError(t, err)

	assert.Equal(t, StatusPaid, doc.Status)
	assert.True(t, doc.AmountPaid.Equal(dec("100")), "amount paid is clamped to the total")
}

func TestRecordPayment_ExplicitPaidSettles(t *testing.T) {
	f := newFixture(t)
	doc := committedSale(t, f, "100")

	doc, err := f.svc.RecordPayment(context.Background(), doc.ID, decimal.Zero, StatusPaid)
	require.NoError(t, err)

	assert.Equal(t, StatusPaid, doc.Status)
	assert.True(t, doc.AmountPaid.Equal(dec("100")))

	stored := f.store.sales[doc.ID]
	assert.Equal(t, StatusPaid, stored.Status)
}

func TestRecordPayment_ZeroTotalNeverDerivesPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := committedSale(t, f, "0")
	require.Equal(t, StatusPending, doc.Status)

	// A zero increment leaves the sale as it was.
	doc, err := f.svc.RecordPayment(ctx, doc.ID, decimal.Zero, "")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, doc.Status)
	assert.True(t, doc.AmountPaid.IsZero())

	// Nothing is outstanding on a zero total, so any positive payment
	// is an overpayment.
	_, err = f.svc.RecordPayment(ctx, doc.ID, dec("10"), "")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePaymentExceedsTotal, appErr.Code)

	// Only an explicit Payée settles a free sale.
	doc, err = f.svc.RecordPayment(ctx, doc.ID, decimal.Zero, StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, doc.Status)
	assert.True(t, doc.AmountPaid.IsZero())
}

func TestRecordPayment_RejectsNegativeAmount(t *testing.T) {
	f := newFixture(t)
	doc := committedSale(t, f, "100")

	_, err := f.svc.RecordPayment(context.Background(), doc.ID, dec("-5"), "")

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestRecordPayment_OnlyPaidMayBeForced(t *testing.T) {
	f := newFixture(t)
	doc := committedSale(t, f, "100")

	_, err := f.svc.RecordPayment(context.Background(), doc.ID, dec("10"), StatusPartial)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestRecordPayment_RejectsCancelledSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := committedSale(t, f, "100")

	_, err := f.svc.Cancel(ctx, doc.ID)
	require.NoError(t, err)

	_, err = f.svc.RecordPayment(ctx, doc.ID, dec("10"), "")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeSaleCancelled, appErr.Code)
}

// --- Cancel ---

func TestCancel_RestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.seedProduct("Café moulu", dec("2500"), dec("20"), decimal.Zero)
	doc, err := f.svc.Create(ctx, Draft{
		ClientName: "Acme",
		Items:      []DraftItem{{ProductID: idPtr(p.ID), Quantity: dec("3"), UnitPrice: dec("2500")}},
	})
	require.NoError(t, err)
	require.True(t, f.store.products[p.ID].Quantity.Equal(dec("17")))

	cancelled, err := f.svc.Cancel(ctx, doc.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.True(t, f.store.products[p.ID].Quantity.Equal(dec("20")), "stock is restored")

	// Cancelling twice would restore stock twice; the second call is rejected.
	_, err = f.svc.Cancel(ctx, doc.ID)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeSaleCancelled, appErr.Code)
	assert.True(t, f.store.products[p.ID].Quantity.Equal(dec("20")))
}

// --- GetByID ---

func TestGetByID_LoadsItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := committedSale(t, f, "100")

	loaded, err := f.svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.True(t, loaded.Items[0].Amount.Equal(dec("100")))

	_, err = f.svc.GetByID(ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))
}
