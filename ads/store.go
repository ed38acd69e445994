package ads

import (
	"context"

	"pixels/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store is the persistence interface for ads, interaction records and
// reward balances.
type Store interface {
	CreateAd(ctx context.Context, ad models.Ad) (models.Ad, error)
	GetAd(ctx context.Context, adID primitive.ObjectID) (models.Ad, error)
	ListActiveAds(ctx context.Context) ([]models.Ad, error)
	ListAdsByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Ad, error)
	DeleteAd(ctx context.Context, adID, ownerID primitive.ObjectID) error
	BumpViews(ctx context.Context, adIDs []primitive.ObjectID) error

	// DebitBudget decrements remainingBudget by reward and increments the
	// interaction counter in one conditional update, guarded by
	// remainingBudget >= reward. It returns the ad after the update, or
	// ErrBudgetExhausted when the guard fails or the ad does not exist.
	DebitBudget(ctx context.Context, adID primitive.ObjectID, reward int64) (models.Ad, error)

	// CreditBudget reverses a debit when a later step of the accounting
	// unit fails.
	CreditBudget(ctx context.Context, adID primitive.ObjectID, reward int64) error

	// InsertInteraction appends one audit row. A retry carrying the same
	// idempotency key returns ErrDuplicateInteraction.
	InsertInteraction(ctx context.Context, in models.Interaction) error
	DeleteInteraction(ctx context.Context, idempotencyKey string) error
	ListInteractionsByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Interaction, error)

	CreditEarnings(ctx context.Context, userID primitive.ObjectID, amount int64) error
	GetEarnings(ctx context.Context, userID primitive.ObjectID) (int64, error)
}
