package ads

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestService() (*Service, *MemoryStore) {
	store := NewMemoryStore()
	return New(store, zap.NewNop().Sugar()), store
}

func TestRewardFor(t *testing.T) {
	assert.Equal(t, int64(10), RewardFor("view"))
	assert.Equal(t, int64(5), RewardFor("click"))
	assert.Equal(t, int64(5), RewardFor(""))
}

func TestCreateAd(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	owner := primitive.NewObjectID()

	t.Run("RejectsNonPositiveAmount", func(t *testing.T) {
		_, err := svc.CreateAd(ctx, owner, "https://cdn.example/ad.png", 0)
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = svc.CreateAd(ctx, owner, "https://cdn.example/ad.png", -50)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("FundsFullBudget", func(t *testing.T) {
		ad, err := svc.CreateAd(ctx, owner, "https://cdn.example/ad.png", 500)
		require.NoError(t, err)
		assert.Equal(t, int64(500), ad.AmountCFA)
		assert.Equal(t, int64(500), ad.RemainingBudget)
		assert.Zero(t, ad.Views)
		assert.Zero(t, ad.Interactions)
	})
}

func TestListActiveExcludesExhausted(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	owner := primitive.NewObjectID()
	user := primitive.NewObjectID()
	store.AddUser(user)

	alive, err := svc.CreateAd(ctx, owner, "https://cdn.example/alive.png", 100)
	require.NoError(t, err)
	dying, err := svc.CreateAd(ctx, owner, "https://cdn.example/dying.png", 10)
	require.NoError(t, err)

	// Drain the small ad with a single view.
	_, _, err = svc.RecordInteraction(ctx, user, dying.ID, "view")
	require.NoError(t, err)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, alive.ID, active[0].ID)
	for _, ad := range active {
		assert.Greater(t, ad.RemainingBudget, int64(0))
	}
}

func TestRecordInteraction(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	owner := primitive.NewObjectID()
	user := primitive.NewObjectID()
	store.AddUser(user)

	ad, err := svc.CreateAd(ctx, owner, "https://cdn.example/ad.png", 100)
	require.NoError(t, err)

	t.Run("ViewPaysExactly10", func(t *testing.T) {
		in, updated, err := svc.RecordInteraction(ctx, user, ad.ID, "view")
		require.NoError(t, err)

		assert.Equal(t, int64(10), in.Reward)
		assert.Equal(t, int64(90), updated.RemainingBudget)
		assert.Equal(t, int64(1), updated.Interactions)
		assert.NotEmpty(t, in.IdempotencyKey)

		balance, err := store.GetEarnings(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, int64(10), balance)
		assert.Equal(t, 1, store.InteractionCount())
	})

	t.Run("OtherTypePays5", func(t *testing.T) {
		in, updated, err := svc.RecordInteraction(ctx, user, ad.ID, "click")
		require.NoError(t, err)
		assert.Equal(t, int64(5), in.Reward)
		assert.Equal(t, int64(85), updated.RemainingBudget)
	})

	t.Run("UnknownAdIsNotFound", func(t *testing.T) {
		_, _, err := svc.RecordInteraction(ctx, user, primitive.NewObjectID(), "view")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestInsufficientBudgetLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	owner := primitive.NewObjectID()
	user := primitive.NewObjectID()
	store.AddUser(user)

	ad, err := svc.CreateAd(ctx, owner, "https://cdn.example/ad.png", 7)
	require.NoError(t, err)

	_, _, err = svc.RecordInteraction(ctx, user, ad.ID, "view")
	assert.ErrorIs(t, err, ErrBudgetExhausted)

	after, err := store.GetAd(ctx, ad.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), after.RemainingBudget)
	assert.Zero(t, after.Interactions)

	balance, err := store.GetEarnings(ctx, user)
	require.NoError(t, err)
	assert.Zero(t, balance)
	assert.Zero(t, store.InteractionCount())
}

func TestSequentialDrainScenario(t *testing.T) {
	// Advertiser funds 100 FCFA; ten users each send one view (reward 10).
	ctx := context.Background()
	svc, store := newTestService()
	owner := primitive.NewObjectID()

	ad, err := svc.CreateAd(ctx, owner, "https://cdn.example/ad.png", 100)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		user := primitive.NewObjectID()
		store.AddUser(user)
		_, _, err := svc.RecordInteraction(ctx, user, ad.ID, "view")
		require.NoError(t, err)
	}

	final, err := store.GetAd(ctx, ad.ID)
	require.NoError(t, err)
	assert.Zero(t, final.RemainingBudget)
	assert.Equal(t, int64(10), final.Interactions)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	// The eleventh interaction finds nothing left.
	straggler := primitive.NewObjectID()
	store.AddUser(straggler)
	_, _, err = svc.RecordInteraction(ctx, straggler, ad.ID, "view")
	assert.ErrorIs(t, err, ErrBudgetExhausted)
}

func TestConcurrentDrainNeverOverspends(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	owner := primitive.NewObjectID()

	ad, err := svc.CreateAd(ctx, owner, "https://cdn.example/ad.png", 200)
	require.NoError(t, err)

	const attempts = 100 // 100 views of 10 against a budget of 200
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0

	for i := 0; i < attempts; i++ {
		user := primitive.NewObjectID()
		store.AddUser(user)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := svc.RecordInteraction(ctx, user, ad.ID, "view"); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	final, err := store.GetAd(ctx, ad.ID)
	require.NoError(t, err)

	assert.Equal(t, 20, accepted)
	assert.Zero(t, final.RemainingBudget)
	assert.GreaterOrEqual(t, final.RemainingBudget, int64(0))
	assert.Equal(t, int64(20), final.Interactions)
	assert.Equal(t, 20, store.InteractionCount())
}

func TestFailedAuditRowRollsBackDebit(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	owner := primitive.NewObjectID()
	user := primitive.NewObjectID()
	store.AddUser(user)

	ad, err := svc.CreateAd(ctx, owner, "https://cdn.example/ad.png", 100)
	require.NoError(t, err)

	store.FailInsertInteraction = errors.New("write timeout")
	_, _, err = svc.RecordInteraction(ctx, user, ad.ID, "view")
	require.Error(t, err)
	store.FailInsertInteraction = nil

	after, err := store.GetAd(ctx, ad.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), after.RemainingBudget)
	assert.Zero(t, after.Interactions)

	balance, err := store.GetEarnings(ctx, user)
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestFailedEarningsCreditRollsBackEverything(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	owner := primitive.NewObjectID()
	user := primitive.NewObjectID()
	store.AddUser(user)

	ad, err := svc.CreateAd(ctx, owner, "https://cdn.example/ad.png", 100)
	require.NoError(t, err)

	store.FailCreditEarnings = errors.New("write timeout")
	_, _, err = svc.RecordInteraction(ctx, user, ad.ID, "view")
	require.Error(t, err)
	store.FailCreditEarnings = nil

	after, err := store.GetAd(ctx, ad.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), after.RemainingBudget)
	assert.Zero(t, after.Interactions)
	assert.Zero(t, store.InteractionCount())
}

func TestGetDashboard(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	advertiser := primitive.NewObjectID()
	viewer := primitive.NewObjectID()
	store.AddUser(advertiser)
	store.AddUser(viewer)

	ad, err := svc.CreateAd(ctx, advertiser, "https://cdn.example/ad.png", 50)
	require.NoError(t, err)
	_, _, err = svc.RecordInteraction(ctx, viewer, ad.ID, "view")
	require.NoError(t, err)

	t.Run("AdvertiserSeesOwnedAds", func(t *testing.T) {
		dash, err := svc.GetDashboard(ctx, advertiser)
		require.NoError(t, err)
		require.Len(t, dash.Ads, 1)
		assert.Equal(t, int64(40), dash.Ads[0].RemainingBudget)
		assert.Empty(t, dash.Interactions)
		assert.Zero(t, dash.Earnings)
	})

	t.Run("ViewerSeesRewardHistory", func(t *testing.T) {
		dash, err := svc.GetDashboard(ctx, viewer)
		require.NoError(t, err)
		assert.Empty(t, dash.Ads)
		require.Len(t, dash.Interactions, 1)
		assert.Equal(t, int64(10), dash.Interactions[0].Reward)
		assert.Equal(t, int64(10), dash.Earnings)
	})
}

func TestDeleteAdOwnerOnly(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	owner := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	ad, err := svc.CreateAd(ctx, owner, "https://cdn.example/ad.png", 50)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteAd(ctx, ad.ID, stranger), ErrNotFound)
	assert.NoError(t, svc.DeleteAd(ctx, ad.ID, owner))
	assert.ErrorIs(t, svc.DeleteAd(ctx, ad.ID, owner), ErrNotFound)
}
