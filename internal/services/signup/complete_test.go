package signup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/saas-starter/internal/cache"
	"github.com/magabrotheeeer/saas-starter/internal/models"
	"github.com/magabrotheeeer/saas-starter/internal/paymentprovider"
)

func startPasswordCheckout(t *testing.T, env *testEnv, email string, plan Plan) (pendingID, sessionID string) {
	t.Helper()
	ctx := context.Background()
	res, err := env.svc.CreatePendingSignup(ctx, "Test User", email, "password-1")
	require.NoError(t, err)
	_, err = env.svc.CreateCheckoutSession(ctx, res.ID, plan)
	require.NoError(t, err)
	p, err := env.svc.GetPendingSignup(ctx, res.ID)
	require.NoError(t, err)
	return res.ID, p.StripeSessionID
}

func TestCompleteCheckout_PasswordSignup(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	var hooked []CompletionResult
	env.svc.OnCompleted(func(ctx context.Context, res CompletionResult) {
		hooked = append(hooked, res)
	})

	pendingID, sessionID := startPasswordCheckout(t, env, "alice@example.com", PlanStarter)
	env.proc.pay(sessionID, env.now)

	res, err := env.svc.CompleteCheckout(ctx, sessionID)
	require.NoError(t, err)
	assert.False(t, res.AlreadyCompleted)
	assert.True(t, res.Created)
	assert.Equal(t, models.ProviderCredential, res.Provider)

	user, err := env.repo.GetUserByID(ctx, res.UserID)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.False(t, user.EmailVerified)
	assert.Equal(t, "cus_"+sessionID, user.StripeCustomerID)

	sub, err := env.repo.GetSubscriptionByReferenceID(ctx, res.UserID)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "starter", sub.Plan)
	assert.Equal(t, models.SubscriptionStatusTrialing, sub.Status)
	assert.Equal(t, "sub_"+sessionID, sub.StripeSubscriptionID)
	require.NotNil(t, sub.TrialStart)
	require.NotNil(t, sub.TrialEnd)
	assert.True(t, env.now.AddDate(0, 0, 14).Equal(*sub.TrialEnd))
	assert.Equal(t, 1, sub.Seats)

	p, err := env.repo.GetPendingSignup(ctx, pendingID)
	require.NoError(t, err)
	assert.Nil(t, p, "pending signup must be consumed")

	require.Len(t, hooked, 1)
	assert.Equal(t, res.UserID, hooked[0].UserID)
	require.Len(t, env.notifier.messages, 1)
	assert.Equal(t, "alice@example.com", env.notifier.messages[0].Email)
	assert.Equal(t, []string{cache.ActiveSubscriptionKey(res.UserID)}, env.cache.keys)

	// повторный вызов (вебхук после редиректа)
	again, err := env.svc.CompleteCheckout(ctx, sessionID)
	require.NoError(t, err)
	assert.True(t, again.AlreadyCompleted)
	assert.Equal(t, res.UserID, again.UserID)

	users, accounts, pending, subs := env.repo.counts()
	assert.Equal(t, 1, users)
	assert.Equal(t, 1, accounts)
	assert.Zero(t, pending)
	assert.Equal(t, 1, subs)
	assert.Len(t, hooked, 1)
	assert.Len(t, env.notifier.messages, 1)
}

func TestCompleteCheckout_OAuthSignupProPlan(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	res, err := env.svc.CreateOAuthPendingSignup(ctx, OAuthIdentity{
		Provider: "github", AccountID: "gh-7", Name: "Olga", Email: "olga@example.com",
	})
	require.NoError(t, err)
	_, err = env.svc.CreateCheckoutSession(ctx, res.ID, PlanPro)
	require.NoError(t, err)
	env.proc.pay("cs_test_1", env.now)

	done, err := env.svc.CompleteCheckout(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, "github", done.Provider)
	assert.Nil(t, done.TrialEnd)

	user, err := env.repo.GetUserByID(ctx, done.UserID)
	require.NoError(t, err)
	assert.True(t, user.EmailVerified)

	sub, err := env.repo.GetSubscriptionByReferenceID(ctx, done.UserID)
	require.NoError(t, err)
	assert.Equal(t, "pro", sub.Plan)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.Nil(t, sub.TrialStart)
	assert.Nil(t, sub.TrialEnd)
}

// Регистрация истекла до оплаты, пользователь так и не был создан.
func TestCompleteCheckout_ExpiredSignup(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	pendingID, sessionID := startPasswordCheckout(t, env, "late@example.com", PlanStarter)
	env.advance(25 * time.Hour)
	env.proc.pay(sessionID, env.now)

	_, err := env.svc.CompleteCheckout(ctx, sessionID)
	assert.ErrorIs(t, err, ErrSignupSessionExpired)

	users, _, _, subs := env.repo.counts()
	assert.Zero(t, users)
	assert.Zero(t, subs)

	p, err := env.repo.GetPendingSignup(ctx, pendingID)
	require.NoError(t, err)
	assert.Nil(t, p, "expired pending signup must be evicted")
}

func TestCompleteCheckout_ExistingUser(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	require.NoError(t, env.repo.InsertUser(ctx, models.User{ID: "user-1", Email: "exist@example.com", Role: models.RoleUser}))

	var hooked int
	env.svc.OnCompleted(func(context.Context, CompletionResult) { hooked++ })

	_, err := env.svc.CreateCheckoutForExistingUser(ctx, PlanPro, "user-1", "exist@example.com")
	require.NoError(t, err)
	env.proc.pay("cs_test_1", env.now)

	res, err := env.svc.CompleteCheckout(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", res.UserID)
	assert.False(t, res.AlreadyCompleted)
	assert.False(t, res.Created)
	assert.Zero(t, hooked, "existing user is not a new sign-up")
	assert.Contains(t, env.repo.locks, "user:user-1")

	user, err := env.repo.GetUserByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "cus_cs_test_1", user.StripeCustomerID)

	again, err := env.svc.CompleteCheckout(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.True(t, again.AlreadyCompleted)

	users, _, _, subs := env.repo.counts()
	assert.Equal(t, 1, users)
	assert.Equal(t, 1, subs)
}

func TestCompleteCheckout_ExistingUserResubscribesAfterCancel(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	require.NoError(t, env.repo.InsertUser(ctx, models.User{ID: "user-2", Email: "back@example.com", Role: models.RoleUser}))
	require.NoError(t, env.repo.InsertSubscription(ctx, models.Subscription{
		ID: "old", ReferenceID: "user-2", Status: "canceled", StripeSubscriptionID: "sub_old",
	}))

	_, err := env.svc.CreateCheckoutForExistingUser(ctx, PlanStarter, "user-2", "")
	require.NoError(t, err)
	env.proc.pay("cs_test_1", env.now)

	res, err := env.svc.CompleteCheckout(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.False(t, res.AlreadyCompleted)

	sub, err := env.repo.GetSubscriptionByReferenceID(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, "sub_cs_test_1", sub.StripeSubscriptionID)
}

func TestCompleteCheckout_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		session paymentprovider.CheckoutSession
		wantErr error
	}{
		{
			name: "unpaid",
			session: paymentprovider.CheckoutSession{
				ID: "cs_unpaid", PaymentStatus: "unpaid", Status: "open",
				Metadata:     map[string]string{MetadataPendingSignupID: "p1"},
				Subscription: &paymentprovider.Subscription{ID: "sub_1"},
			},
			wantErr: ErrPaymentNotCompleted,
		},
		{
			name: "no correlation metadata",
			session: paymentprovider.CheckoutSession{
				ID: "cs_nometa", PaymentStatus: paymentprovider.PaymentStatusPaid,
				Metadata:     map[string]string{MetadataPlan: "starter"},
				Subscription: &paymentprovider.Subscription{ID: "sub_1"},
			},
			wantErr: ErrInvalidCheckoutSession,
		},
		{
			name: "no subscription",
			session: paymentprovider.CheckoutSession{
				ID: "cs_nosub", PaymentStatus: paymentprovider.PaymentStatusPaid,
				Metadata: map[string]string{MetadataPendingSignupID: "p1"},
			},
			wantErr: ErrInvalidCheckoutSession,
		},
		{
			name: "unknown user",
			session: paymentprovider.CheckoutSession{
				ID: "cs_nouser", Status: paymentprovider.SessionStatusComplete,
				Metadata:     map[string]string{MetadataUserID: "ghost"},
				Subscription: &paymentprovider.Subscription{ID: "sub_1"},
			},
			wantErr: ErrUserNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			env.proc.sessions[tt.session.ID] = tt.session

			_, err := env.svc.CompleteCheckout(context.Background(), tt.session.ID)
			assert.ErrorIs(t, err, tt.wantErr)

			users, _, _, subs := env.repo.counts()
			assert.Zero(t, users)
			assert.Zero(t, subs)
		})
	}

	env := newTestEnv()
	_, err := env.svc.CompleteCheckout(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidCheckoutSession)
	assert.Zero(t, env.proc.gets)
}

func TestCompleteCheckout_ProcessorErrorIsRetriable(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, sessionID := startPasswordCheckout(t, env, "retry@example.com", PlanPro)

	_, err := env.svc.CompleteCheckout(ctx, "cs_missing")
	require.Error(t, err)

	env.proc.pay(sessionID, env.now)
	res, err := env.svc.CompleteCheckout(ctx, sessionID)
	require.NoError(t, err)
	assert.True(t, res.Created)
}

func TestCompleteCheckout_PlanDefaultsToStarter(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	pendingID, sessionID := startPasswordCheckout(t, env, "noplan@example.com", PlanStarter)
	env.proc.pay(sessionID, env.now)
	s := env.proc.sessions[sessionID]
	s.Metadata = map[string]string{MetadataPendingSignupID: pendingID}
	env.proc.sessions[sessionID] = s

	res, err := env.svc.CompleteCheckout(ctx, sessionID)
	require.NoError(t, err)
	sub, err := env.repo.GetSubscriptionByReferenceID(ctx, res.UserID)
	require.NoError(t, err)
	assert.Equal(t, "starter", sub.Plan)
}

func TestCompleteCheckout_SideEffectFailuresDoNotFail(t *testing.T) {
	env := newTestEnv()
	env.notifier.err = errors.New("broker down")

	_, sessionID := startPasswordCheckout(t, env, "quiet@example.com", PlanPro)
	env.proc.pay(sessionID, env.now)

	res, err := env.svc.CompleteCheckout(context.Background(), sessionID)
	require.NoError(t, err)
	assert.True(t, res.Created)
}

func TestCompleteCheckout_ConcurrentCallbacks(t *testing.T) {
	env := newTestEnv()
	_, sessionID := startPasswordCheckout(t, env, "race@example.com", PlanStarter)
	env.proc.pay(sessionID, env.now)

	const callers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		already  int
		userIDs  = map[string]struct{}{}
		failures []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := env.svc.CompleteCheckout(context.Background(), sessionID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			userIDs[res.UserID] = struct{}{}
			if res.AlreadyCompleted {
				already++
			} else {
				created++
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, failures)
	assert.Equal(t, 1, created)
	assert.Equal(t, callers-1, already)
	assert.Len(t, userIDs, 1)

	users, accounts, pending, subs := env.repo.counts()
	assert.Equal(t, 1, users)
	assert.Equal(t, 1, accounts)
	assert.Zero(t, pending)
	assert.Equal(t, 1, subs)
}
