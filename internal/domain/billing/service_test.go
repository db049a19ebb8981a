package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gespro/internal/core/appctx"
	"gespro/internal/core/apperror"
	"gespro/internal/core/id"
)

type planStore struct {
	plans map[id.ID]*Plan
}

func newPlanStore() *planStore {
	return &planStore{plans: make(map[id.ID]*Plan)}
}

func (s *planStore) Create(ctx context.Context, plan *Plan) error {
	cp := *plan
	s.plans[plan.ID] = &cp
	return nil
}

func (s *planStore) GetByID(ctx context.Context, planID id.ID) (*Plan, error) {
	plan, ok := s.plans[planID]
	if !ok {
		return nil, apperror.NewNotFound("plan", planID)
	}
	cp := *plan
	return &cp, nil
}

func (s *planStore) Update(ctx context.Context, plan *Plan) error {
	if _, ok := s.plans[plan.ID]; !ok {
		return apperror.NewNotFound("plan", plan.ID)
	}
	cp := *plan
	s.plans[plan.ID] = &cp
	return nil
}

func (s *planStore) List(ctx context.Context, activeOnly bool) ([]Plan, error) {
	var out []Plan
	for _, plan := range s.plans {
		if activeOnly && !plan.IsActive {
			continue
		}
		out = append(out, *plan)
	}
	return out, nil
}

type subStore struct {
	subs map[id.ID]*Subscription
}

func newSubStore() *subStore {
	return &subStore{subs: make(map[id.ID]*Subscription)}
}

func (s *subStore) Create(ctx context.Context, sub *Subscription) error {
	cp := *sub
	s.subs[sub.ID] = &cp
	return nil
}

func (s *subStore) GetByID(ctx context.Context, subID id.ID) (*Subscription, error) {
	sub, ok := s.subs[subID]
	if !ok {
		return nil, apperror.NewNotFound("subscription", subID)
	}
	cp := *sub
	return &cp, nil
}

func (s *subStore) GetByToken(ctx context.Context, token string) (*Subscription, error) {
	for _, sub := range s.subs {
		if sub.PaymentToken != nil && *sub.PaymentToken == token {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("subscription", token)
}

func (s *subStore) GetCurrentByOwner(ctx context.Context, ownerID string) (*Subscription, error) {
	var latest *Subscription
	for _, sub := range s.subs {
		if sub.OwnerID != ownerID || sub.Status != SubscriptionActive {
			continue
		}
		if latest == nil || sub.CreatedAt.After(latest.CreatedAt) {
			latest = sub
		}
	}
	if latest == nil {
		return nil, apperror.NewNotFound("subscription", ownerID)
	}
	cp := *latest
	return &cp, nil
}

func (s *subStore) Update(ctx context.Context, sub *Subscription) error {
	if _, ok := s.subs[sub.ID]; !ok {
		return apperror.NewNotFound("subscription", sub.ID)
	}
	cp := *sub
	s.subs[sub.ID] = &cp
	return nil
}

func (s *subStore) ListByOwner(ctx context.Context, ownerID string) ([]Subscription, error) {
	var out []Subscription
	for _, sub := range s.subs {
		if sub.OwnerID == ownerID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (s *subStore) ExpireOutdated(ctx context.Context) (int, error) {
	n := 0
	now := time.Now()
	for _, sub := range s.subs {
		if sub.Status == SubscriptionActive && sub.EndsAt != nil && sub.EndsAt.Before(now) {
			sub.Status = SubscriptionExpired
			n++
		}
	}
	return n, nil
}

// fakeGateway scripts the external payment provider.
type fakeGateway struct {
	initErr   error
	paid      bool
	rawStatus string
	checks    int
}

func (g *fakeGateway) InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentInit, error) {
	if g.initErr != nil {
		return nil, g.initErr
	}
	return &PaymentInit{Token: "tok-123", URL: "https://pay.example.com/tok-123"}, nil
}

func (g *fakeGateway) CheckPayment(ctx context.Context, token string) (*PaymentStatus, error) {
	g.checks++
	if g.paid {
		return &PaymentStatus{Paid: true, RawStatus: "paid"}, nil
	}
	return &PaymentStatus{Paid: false, RawStatus: g.rawStatus}, nil
}

type activationRecorder struct {
	owners []string
}

func (r *activationRecorder) SubscriptionActivated(ctx context.Context, ownerID, planName string, endsAt time.Time) {
	r.owners = append(r.owners, ownerID)
}

// passTx runs the function without any real transaction.
type passTx struct{}

func (passTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	plans    *planStore
	subs     *subStore
	gateway  *fakeGateway
	notifier *activationRecorder
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	plans := newPlanStore()
	subs := newSubStore()
	gw := &fakeGateway{}
	notes := &activationRecorder{}
	svc := NewService(plans, subs, gw, passTx{}).WithNotifier(notes)
	return &fixture{plans: plans, subs: subs, gateway: gw, notifier: notes, svc: svc}
}

func (f *fixture) seedPlan(name string, price string, days int) *Plan {
	plan := NewPlan(name, decimal.RequireFromString(price), days)
	f.plans.plans[plan.ID] = plan
	return plan
}

func userCtx(userID string) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID: userID,
		Role:   appctx.RoleUser,
	})
}

func adminCtx() context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID:  "admin-1",
		Role:    appctx.RoleAdmin,
		IsAdmin: true,
	})
}

// --- Subscribe ---

func TestSubscribe_CreatesPendingWithToken(t *testing.T) {
	f := newFixture(t)
	plan := f.seedPlan("Mensuel", "5000", 30)

	sub, init, err := f.svc.Subscribe(userCtx("owner-1"), plan.ID, PayerInfo{Name: "Diallo", Phone: "770000000"})
	require.NoError(t, err)

	assert.Equal(t, SubscriptionPending, sub.Status)
	assert.Equal(t, "owner-1", sub.OwnerID)
	require.NotNil(t, sub.PaymentToken)
	assert.Equal(t, "tok-123", *sub.PaymentToken)
	assert.Equal(t, "https://pay.example.com/tok-123", init.URL)
	assert.Nil(t, sub.StartsAt, "period starts only on confirmation")

	stored, ok := f.subs.subs[sub.ID]
	require.True(t, ok)
	assert.Equal(t, SubscriptionPending, stored.Status)
}

func TestSubscribe_RequiresAuthentication(t *testing.T) {
	f := newFixture(t)
	plan := f.seedPlan("Mensuel", "5000", 30)

	_, _, err := f.svc.Subscribe(context.Background(), plan.ID, PayerInfo{})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}

func TestSubscribe_RejectsInactivePlan(t *testing.T) {
	f := newFixture(t)
	plan := f.seedPlan("Ancien", "5000", 30)
	plan.IsActive = false

	_, _, err := f.svc.Subscribe(userCtx("owner-1"), plan.ID, PayerInfo{})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
}

func TestSubscribe_RejectsWhenAlreadyActive(t *testing.T) {
	f := newFixture(t)
	plan := f.seedPlan("Mensuel", "5000", 30)

	current := NewSubscription("owner-1", plan.ID)
	current.Activate(plan)
	f.subs.subs[current.ID] = current

	_, _, err := f.svc.Subscribe(userCtx("owner-1"), plan.ID, PayerInfo{})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
}

func TestSubscribe_GatewayFailureCreatesNothing(t *testing.T) {
	f := newFixture(t)
	plan := f.seedPlan("Mensuel", "5000", 30)
	f.gateway.initErr = errors.New("gateway timeout")

	_, _, err := f.svc.Subscribe(userCtx("owner-1"), plan.ID, PayerInfo{})

	require.Error(t, err)
	assert.Empty(t, f.subs.subs)
}

// --- ConfirmPayment ---

func TestConfirmPayment_ActivatesForPlanDuration(t *testing.T) {
	f := newFixture(t)
	plan := f.seedPlan("Mensuel", "5000", 30)

	sub, _, err := f.svc.Subscribe(userCtx("owner-1"), plan.ID, PayerInfo{})
	require.NoError(t, err)

	f.gateway.paid = true
	confirmed, err := f.svc.ConfirmPayment(userCtx("owner-1"), sub.ID)
	require.NoError(t, err)

	assert.Equal(t, SubscriptionActive, confirmed.Status)
	require.NotNil(t, confirmed.EndsAt)
	wantEnd := time.Now().Add(30 * 24 * time.Hour)
	assert.WithinDuration(t, wantEnd, *confirmed.EndsAt, time.Minute)
	assert.True(t, confirmed.IsCurrent())

	// The notifier heard about the activation.
	assert.Equal(t, []string{"owner-1"}, f.notifier.owners)
}

func TestConfirmPayment_PendingGatewayStatus(t *testing.T) {
	f := newFixture(t)
	plan := f.seedPlan("Mensuel", "5000", 30)

	sub, _, err := f.svc.Subscribe(userCtx("owner-1"), plan.ID, PayerInfo{})
	require.NoError(t, err)

	f.gateway.rawStatus = "pending"
	_, err = f.svc.ConfirmPayment(userCtx("owner-1"), sub.ID)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePaymentGateway, appErr.Code)

	// The subscription stays pending and can be confirmed again later.
	assert.Equal(t, SubscriptionPending, f.subs.subs[sub.ID].Status)
	assert.Empty(t, f.notifier.owners)
}

func TestConfirmPayment_IdempotentOnceActive(t *testing.T) {
	f := newFixture(t)
	plan := f.seedPlan("Mensuel", "5000", 30)

	sub, _, err := f.svc.Subscribe(userCtx("owner-1"), plan.ID, PayerInfo{})
	require.NoError(t, err)

	f.gateway.paid = true
	_, err = f.svc.ConfirmPayment(userCtx("owner-1"), sub.ID)
	require.NoError(t, err)
	checksAfterFirst := f.gateway.checks

	// A second confirmation returns the active subscription without another
	// gateway round trip.
	again, err := f.svc.ConfirmPayment(userCtx("owner-1"), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, SubscriptionActive, again.Status)
	assert.Equal(t, checksAfterFirst, f.gateway.checks)
}

func TestConfirmPayment_WithoutToken(t *testing.T) {
	f := newFixture(t)
	plan := f.seedPlan("Mensuel", "5000", 30)

	sub := NewSubscription("owner-1", plan.ID)
	f.subs.subs[sub.ID] = sub

	_, err := f.svc.ConfirmPayment(userCtx("owner-1"), sub.ID)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
}

// --- EnsureActive ---

func TestEnsureActive(t *testing.T) {
	f := newFixture(t)
	plan := f.seedPlan("Mensuel", "5000", 30)

	// No subscription at all.
	err := f.svc.EnsureActive(userCtx("owner-1"))
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeSubscriptionInactive, appErr.Code)

	// Active subscription grants access.
	sub := NewSubscription("owner-1", plan.ID)
	sub.Activate(plan)
	f.subs.subs[sub.ID] = sub
	assert.NoError(t, f.svc.EnsureActive(userCtx("owner-1")))

	// An active row past its end date no longer counts.
	past := time.Now().Add(-time.Hour)
	f.subs.subs[sub.ID].EndsAt = &past
	err = f.svc.EnsureActive(userCtx("owner-1"))
	appErr, ok = apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeSubscriptionInactive, appErr.Code)
}

func TestEnsureActive_AdminExempt(t *testing.T) {
	f := newFixture(t)

	assert.NoError(t, f.svc.EnsureActive(adminCtx()))
}

// --- plan administration ---

func TestCreatePlan_AdminOnly(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreatePlan(userCtx("owner-1"), "Mensuel", decimal.RequireFromString("5000"), 30)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)

	plan, err := f.svc.CreatePlan(adminCtx(), "Mensuel", decimal.RequireFromString("5000"), 30)
	require.NoError(t, err)
	assert.True(t, plan.IsActive)
	_, ok = f.plans.plans[plan.ID]
	assert.True(t, ok)
}

func TestCreatePlan_ValidatesInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreatePlan(adminCtx(), "", decimal.RequireFromString("5000"), 30)
	assert.Error(t, err)

	_, err = f.svc.CreatePlan(adminCtx(), "Mensuel", decimal.RequireFromString("5000"), 0)
	assert.Error(t, err)
}

func TestTogglePlan(t *testing.T) {
	f := newFixture(t)
	plan := f.seedPlan("Mensuel", "5000", 30)

	toggled, err := f.svc.TogglePlan(adminCtx(), plan.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	toggled, err = f.svc.TogglePlan(adminCtx(), plan.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)

	_, err = f.svc.TogglePlan(userCtx("owner-1"), plan.ID)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
}

func TestListPlans_HidesInactiveFromSubscribers(t *testing.T) {
	f := newFixture(t)
	f.seedPlan("Mensuel", "5000", 30)
	old := f.seedPlan("Ancien", "3000", 30)
	old.IsActive = false

	visible, err := f.svc.ListPlans(userCtx("owner-1"))
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	all, err := f.svc.ListPlans(adminCtx())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// --- expiry sweep ---

func TestExpireOutdated(t *testing.T) {
	f := newFixture(t)
	plan := f.seedPlan("Mensuel", "5000", 30)

	fresh := NewSubscription("owner-1", plan.ID)
	fresh.Activate(plan)
	f.subs.subs[fresh.ID] = fresh

	stale := NewSubscription("owner-2", plan.ID)
	stale.Activate(plan)
	past := time.Now().Add(-time.Hour)
	stale.EndsAt = &past
	f.subs.subs[stale.ID] = stale

	n, err := f.svc.ExpireOutdated(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, SubscriptionExpired, f.subs.subs[stale.ID].Status)
	assert.Equal(t, SubscriptionActive, f.subs.subs[fresh.ID].Status)
}
