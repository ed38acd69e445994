package ads

import (
	"context"
	"errors"
	"time"

	"pixels/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Reward amounts in FCFA per interaction type. The two-tier table is the
// pricing the product ships with today.
const (
	ViewReward    int64 = 10
	DefaultReward int64 = 5
)

// RewardFor maps an interaction type to its fixed payout.
func RewardFor(interactionType string) int64 {
	if interactionType == "view" {
		return ViewReward
	}
	return DefaultReward
}

// Service owns the pay-per-interaction accounting: funding an ad, serving
// the active feed, and paying out rewards while never letting an ad spend
// more than its funded budget.
type Service struct {
	store Store
	log   *zap.SugaredLogger
}

func New(store Store, log *zap.SugaredLogger) *Service {
	return &Service{store: store, log: log}
}

func (s *Service) CreateAd(ctx context.Context, ownerID primitive.ObjectID, url string, amountCFA int64) (models.Ad, error) {
	if amountCFA <= 0 {
		return models.Ad{}, ErrInvalidAmount
	}

	ad := models.Ad{
		ID:              primitive.NewObjectID(),
		OwnerID:         ownerID,
		URL:             url,
		AmountCFA:       amountCFA,
		RemainingBudget: amountCFA,
		CreatedAt:       time.Now().Unix(),
	}
	return s.store.CreateAd(ctx, ad)
}

// ListActive returns every ad that still has budget and best-effort bumps
// their view counters.
func (s *Service) ListActive(ctx context.Context) ([]models.Ad, error) {
	active, err := s.store.ListActiveAds(ctx)
	if err != nil {
		return nil, err
	}

	if len(active) > 0 {
		ids := make([]primitive.ObjectID, len(active))
		for i, ad := range active {
			ids[i] = ad.ID
		}
		if err := s.store.BumpViews(ctx, ids); err != nil {
			s.log.Warnw("view counter bump failed", "error", err)
		}
	}

	return active, nil
}

// RecordInteraction pays the fixed reward for one qualifying interaction.
// The unit is: conditional budget debit (compare-and-swap on
// remainingBudget), append of the audit row, credit of the user's
// earnings. The debit is the commit point; if a later step fails the
// debit is compensated so no partial state survives.
func (s *Service) RecordInteraction(ctx context.Context, userID, adID primitive.ObjectID, interactionType string) (models.Interaction, models.Ad, error) {
	reward := RewardFor(interactionType)

	ad, err := s.store.DebitBudget(ctx, adID, reward)
	if err != nil {
		return models.Interaction{}, models.Ad{}, err
	}

	interaction := models.Interaction{
		ID:             primitive.NewObjectID(),
		UserID:         userID,
		AdID:           adID,
		Type:           interactionType,
		Reward:         reward,
		IdempotencyKey: uuid.NewString(),
		CreatedAt:      time.Now().Unix(),
	}

	if err := s.store.InsertInteraction(ctx, interaction); err != nil && !errors.Is(err, ErrDuplicateInteraction) {
		s.rollbackDebit(ctx, adID, reward, "")
		return models.Interaction{}, models.Ad{}, err
	}

	if err := s.store.CreditEarnings(ctx, userID, reward); err != nil {
		s.rollbackDebit(ctx, adID, reward, interaction.IdempotencyKey)
		return models.Interaction{}, models.Ad{}, err
	}

	return interaction, ad, nil
}

// rollbackDebit compensates a debit whose accounting unit failed midway.
// The interaction row, if it was written, is removed as well: the event
// was never accepted, so the audit log must not show it.
func (s *Service) rollbackDebit(ctx context.Context, adID primitive.ObjectID, reward int64, idempotencyKey string) {
	if err := s.store.CreditBudget(ctx, adID, reward); err != nil {
		s.log.Errorw("budget compensation failed, ad under-credited",
			"adId", adID.Hex(), "reward", reward, "error", err)
	}
	if idempotencyKey != "" {
		if err := s.store.DeleteInteraction(ctx, idempotencyKey); err != nil {
			s.log.Errorw("interaction compensation failed",
				"idempotencyKey", idempotencyKey, "error", err)
		}
	}
}

// Dashboard is the advertiser/earner overview: owned ads, own reward
// history and the current balance.
type Dashboard struct {
	Ads          []models.Ad          `json:"ads"`
	Interactions []models.Interaction `json:"interactions"`
	Earnings     int64                `json:"earnings"`
}

func (s *Service) GetDashboard(ctx context.Context, userID primitive.ObjectID) (Dashboard, error) {
	owned, err := s.store.ListAdsByOwner(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}
	history, err := s.store.ListInteractionsByUser(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}
	earnings, err := s.store.GetEarnings(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}

	if owned == nil {
		owned = []models.Ad{}
	}
	if history == nil {
		history = []models.Interaction{}
	}

	return Dashboard{Ads: owned, Interactions: history, Earnings: earnings}, nil
}

func (s *Service) DeleteAd(ctx context.Context, adID, ownerID primitive.ObjectID) error {
	return s.store.DeleteAd(ctx, adID, ownerID)
}
