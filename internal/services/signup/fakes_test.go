package signup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/magabrotheeeer/saas-starter/internal/models"
	"github.com/magabrotheeeer/saas-starter/internal/paymentprovider"
	"github.com/magabrotheeeer/saas-starter/internal/storage"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type memState struct {
	users    map[string]models.User
	accounts []models.Account
	pending  map[string]models.PendingSignup
	subs     []models.Subscription
}

func (s memState) clone() memState {
	c := memState{
		users:    make(map[string]models.User, len(s.users)),
		accounts: append([]models.Account(nil), s.accounts...),
		pending:  make(map[string]models.PendingSignup, len(s.pending)),
		subs:     append([]models.Subscription(nil), s.subs...),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.pending {
		c.pending[k] = v
	}
	return c
}

// memRepo хранилище в памяти. Транзакции выполняются строго по одной.
type memRepo struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   memState

	locks []string
}

func newMemRepo() *memRepo {
	return &memRepo{st: memState{
		users:   map[string]models.User{},
		pending: map[string]models.PendingSignup{},
	}}
}

func (r *memRepo) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	snapshot := r.st.clone()
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.st = snapshot
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *memRepo) Lock(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locks = append(r.locks, key)
	return nil
}

func (r *memRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.st.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *memRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.st.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *memRepo) InsertUser(ctx context.Context, user models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.st.users {
		if u.Email == user.Email {
			return storage.ErrConflict
		}
	}
	r.st.users[user.ID] = user
	return nil
}

func (r *memRepo) UpdateUserStripeCustomerID(ctx context.Context, userID, customerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.st.users[userID]
	if !ok {
		return errors.New("user not found")
	}
	u.StripeCustomerID = customerID
	r.st.users[userID] = u
	return nil
}

func (r *memRepo) InsertAccount(ctx context.Context, account models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.st.accounts = append(r.st.accounts, account)
	return nil
}

func (r *memRepo) InsertPendingSignup(ctx context.Context, p models.PendingSignup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.st.pending {
		if e.Email == p.Email {
			return storage.ErrConflict
		}
	}
	r.st.pending[p.ID] = p
	return nil
}

func (r *memRepo) GetPendingSignup(ctx context.Context, id string) (*models.PendingSignup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.st.pending[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *memRepo) GetPendingSignupByEmail(ctx context.Context, email string) (*models.PendingSignup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.st.pending {
		if p.Email == email {
			return &p, nil
		}
	}
	return nil, nil
}

func (r *memRepo) ListPendingSignups(ctx context.Context, limit, offset int) ([]*models.PendingSignup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*models.PendingSignup, 0, len(r.st.pending))
	for _, p := range r.st.pending {
		all = append(all, &p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *memRepo) UpdatePendingSignupCheckout(ctx context.Context, id, plan, sessionID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.st.pending[id]
	if !ok {
		return 0, nil
	}
	p.Plan = plan
	p.StripeSessionID = sessionID
	r.st.pending[id] = p
	return 1, nil
}

func (r *memRepo) DeletePendingSignup(ctx context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.st.pending[id]; !ok {
		return 0, nil
	}
	delete(r.st.pending, id)
	return 1, nil
}

func (r *memRepo) DeletePendingSignupsByEmail(ctx context.Context, email string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, p := range r.st.pending {
		if p.Email == email {
			delete(r.st.pending, id)
			n++
		}
	}
	return n, nil
}

func (r *memRepo) DeleteExpiredPendingSignups(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, p := range r.st.pending {
		if p.ExpiresAt.Before(now) {
			delete(r.st.pending, id)
			n++
		}
	}
	return n, nil
}

func (r *memRepo) GetSubscriptionByReferenceID(ctx context.Context, referenceID string) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.st.subs) - 1; i >= 0; i-- {
		if r.st.subs[i].ReferenceID == referenceID {
			sub := r.st.subs[i]
			return &sub, nil
		}
	}
	return nil, nil
}

func (r *memRepo) InsertSubscription(ctx context.Context, sub models.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.st.subs = append(r.st.subs, sub)
	return nil
}

func (r *memRepo) counts() (users, accounts, pending, subs int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.st.users), len(r.st.accounts), len(r.st.pending), len(r.st.subs)
}

func (r *memRepo) accountsOf(userID string) []models.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Account
	for _, a := range r.st.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out
}

// fakeProcessor платёжный провайдер в памяти.
type fakeProcessor struct {
	mu        sync.Mutex
	seq       int
	params    map[string]paymentprovider.CheckoutParams
	sessions  map[string]paymentprovider.CheckoutSession
	createErr error
	gets      int
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{
		params:   map[string]paymentprovider.CheckoutParams{},
		sessions: map[string]paymentprovider.CheckoutSession{},
	}
}

func (p *fakeProcessor) CreateCheckoutSession(ctx context.Context, params paymentprovider.CheckoutParams) (*paymentprovider.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.seq++
	id := fmt.Sprintf("cs_test_%d", p.seq)
	s := paymentprovider.CheckoutSession{
		ID:            id,
		URL:           "https://checkout.stripe.test/" + id,
		PaymentStatus: "unpaid",
		Status:        "open",
		CustomerEmail: params.CustomerEmail,
		Metadata:      params.Metadata,
	}
	p.params[id] = params
	p.sessions[id] = s
	return &s, nil
}

func (p *fakeProcessor) GetCheckoutSession(ctx context.Context, id string) (*paymentprovider.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gets++
	s, ok := p.sessions[id]
	if !ok {
		return nil, fmt.Errorf("no such checkout session: %s", id)
	}
	return &s, nil
}

// pay переводит сессию в оплаченное состояние так, как это делает Stripe.
func (p *fakeProcessor) pay(id string, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.sessions[id]
	params := p.params[id]
	s.Status = paymentprovider.SessionStatusComplete
	s.CustomerID = "cus_" + id
	sub := &paymentprovider.Subscription{
		ID:                 "sub_" + id,
		Status:             models.SubscriptionStatusActive,
		CurrentPeriodStart: now.Unix(),
		CurrentPeriodEnd:   now.AddDate(0, 1, 0).Unix(),
	}
	if params.TrialPeriodDays > 0 {
		s.PaymentStatus = "no_payment_required"
		sub.Status = models.SubscriptionStatusTrialing
		sub.TrialStart = now.Unix()
		sub.TrialEnd = now.AddDate(0, 0, int(params.TrialPeriodDays)).Unix()
		sub.CurrentPeriodEnd = sub.TrialEnd
	} else {
		s.PaymentStatus = paymentprovider.PaymentStatusPaid
	}
	s.Subscription = sub
	p.sessions[id] = s
}

func (p *fakeProcessor) createdCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq
}

func (p *fakeProcessor) paramsOf(id string) paymentprovider.CheckoutParams {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params[id]
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []models.WelcomeMessage
	err      error
}

func (n *fakeNotifier) Publish(routingKey string, message any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, message.(models.WelcomeMessage))
	return nil
}

type fakeCache struct {
	mu   sync.Mutex
	keys []string
}

func (c *fakeCache) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = append(c.keys, key)
	return nil
}

type testEnv struct {
	svc      *Service
	repo     *memRepo
	proc     *fakeProcessor
	notifier *fakeNotifier
	cache    *fakeCache
	now      time.Time
}

func newTestEnv() *testEnv {
	env := &testEnv{
		repo:     newMemRepo(),
		proc:     newFakeProcessor(),
		notifier: &fakeNotifier{},
		cache:    &fakeCache{},
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	env.svc = New(env.repo, env.proc, Config{
		BaseURL:        "https://app.example.com/",
		StarterPriceID: "price_starter",
		ProPriceID:     "price_pro",
	}, newNoopLogger()).WithNotifier(env.notifier).WithCache(env.cache)
	env.svc.now = func() time.Time { return env.now }
	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.now = e.now.Add(d)
}
