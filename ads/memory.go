package ads

import (
	"context"
	"sort"
	"sync"

	"pixels/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is an in-memory Store used by the tests. The mutex gives it
// the same atomicity on DebitBudget that the conditional update gives the
// Mongo store.
type MemoryStore struct {
	mu           sync.Mutex
	ads          map[primitive.ObjectID]models.Ad
	interactions map[string]models.Interaction
	earnings     map[primitive.ObjectID]int64

	// Error injection for exercising the compensation path.
	FailInsertInteraction error
	FailCreditEarnings    error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ads:          make(map[primitive.ObjectID]models.Ad),
		interactions: make(map[string]models.Interaction),
		earnings:     make(map[primitive.ObjectID]int64),
	}
}

// AddUser seeds a zero balance so GetEarnings can resolve the user.
func (s *MemoryStore) AddUser(userID primitive.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.earnings[userID]; !ok {
		s.earnings[userID] = 0
	}
}

func (s *MemoryStore) CreateAd(_ context.Context, ad models.Ad) (models.Ad, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ads[ad.ID] = ad
	return ad, nil
}

func (s *MemoryStore) GetAd(_ context.Context, adID primitive.ObjectID) (models.Ad, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ad, ok := s.ads[adID]
	if !ok {
		return models.Ad{}, ErrNotFound
	}
	return ad, nil
}

func (s *MemoryStore) ListActiveAds(_ context.Context) ([]models.Ad, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var active []models.Ad
	for _, ad := range s.ads {
		if ad.RemainingBudget > 0 {
			active = append(active, ad)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].CreatedAt > active[j].CreatedAt })
	return active, nil
}

func (s *MemoryStore) ListAdsByOwner(_ context.Context, ownerID primitive.ObjectID) ([]models.Ad, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var owned []models.Ad
	for _, ad := range s.ads {
		if ad.OwnerID == ownerID {
			owned = append(owned, ad)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].CreatedAt > owned[j].CreatedAt })
	return owned, nil
}

func (s *MemoryStore) DeleteAd(_ context.Context, adID, ownerID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ad, ok := s.ads[adID]
	if !ok || ad.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(s.ads, adID)
	return nil
}

func (s *MemoryStore) BumpViews(_ context.Context, adIDs []primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range adIDs {
		if ad, ok := s.ads[id]; ok {
			ad.Views++
			s.ads[id] = ad
		}
	}
	return nil
}

func (s *MemoryStore) DebitBudget(_ context.Context, adID primitive.ObjectID, reward int64) (models.Ad, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ad, ok := s.ads[adID]
	if !ok {
		return models.Ad{}, ErrNotFound
	}
	if ad.RemainingBudget < reward {
		return models.Ad{}, ErrBudgetExhausted
	}
	ad.RemainingBudget -= reward
	ad.Interactions++
	s.ads[adID] = ad
	return ad, nil
}

func (s *MemoryStore) CreditBudget(_ context.Context, adID primitive.ObjectID, reward int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ad, ok := s.ads[adID]
	if !ok {
		return ErrNotFound
	}
	ad.RemainingBudget += reward
	ad.Interactions--
	s.ads[adID] = ad
	return nil
}

func (s *MemoryStore) InsertInteraction(_ context.Context, in models.Interaction) error {
	if s.FailInsertInteraction != nil {
		return s.FailInsertInteraction
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.interactions[in.IdempotencyKey]; ok {
		return ErrDuplicateInteraction
	}
	s.interactions[in.IdempotencyKey] = in
	return nil
}

func (s *MemoryStore) DeleteInteraction(_ context.Context, idempotencyKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.interactions, idempotencyKey)
	return nil
}

func (s *MemoryStore) ListInteractionsByUser(_ context.Context, userID primitive.ObjectID) ([]models.Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var history []models.Interaction
	for _, in := range s.interactions {
		if in.UserID == userID {
			history = append(history, in)
		}
	}
	sort.Slice(history, func(i, j int) bool { return history[i].CreatedAt > history[j].CreatedAt })
	return history, nil
}

func (s *MemoryStore) CreditEarnings(_ context.Context, userID primitive.ObjectID, amount int64) error {
	if s.FailCreditEarnings != nil {
		return s.FailCreditEarnings
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.earnings[userID]; !ok {
		return ErrNotFound
	}
	s.earnings[userID] += amount
	return nil
}

func (s *MemoryStore) GetEarnings(_ context.Context, userID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, ok := s.earnings[userID]
	if !ok {
		return 0, ErrNotFound
	}
	return balance, nil
}

// InteractionCount reports how many audit rows are stored.
func (s *MemoryStore) InteractionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.interactions)
}
