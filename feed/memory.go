package feed

import (
	"context"
	"sort"
	"sync"

	"pixels/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is the in-memory Store the tests run against.
type MemoryStore struct {
	mu        sync.Mutex
	media     map[primitive.ObjectID]models.Media
	following map[primitive.ObjectID][]primitive.ObjectID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		media:     make(map[primitive.ObjectID]models.Media),
		following: make(map[primitive.ObjectID][]primitive.ObjectID),
	}
}

// SetFollowing seeds a viewer's follow list.
func (s *MemoryStore) SetFollowing(userID primitive.ObjectID, following []primitive.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.following[userID] = following
}

func (s *MemoryStore) CreateMedia(_ context.Context, m models.Media) (models.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.media[m.ID] = m
	return m, nil
}

func (s *MemoryStore) GetMedia(_ context.Context, mediaID primitive.ObjectID) (models.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[mediaID]
	if !ok {
		return models.Media{}, ErrNotFound
	}
	return m, nil
}

func (s *MemoryStore) ListByOwners(_ context.Context, ownerIDs []primitive.ObjectID) ([]models.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owners := make(map[primitive.ObjectID]bool, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = true
	}
	var result []models.Media
	for _, m := range s.media {
		if owners[m.UserID] {
			result = append(result, m)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt > result[j].CreatedAt })
	return result, nil
}

func (s *MemoryStore) DeleteMedia(_ context.Context, mediaID, ownerID primitive.ObjectID) (models.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[mediaID]
	if !ok {
		return models.Media{}, ErrNotFound
	}
	if m.UserID != ownerID {
		return models.Media{}, ErrForbidden
	}
	delete(s.media, mediaID)
	return m, nil
}

func remove(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

func addUnique(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func (s *MemoryStore) Like(_ context.Context, mediaID, userID primitive.ObjectID) (models.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[mediaID]
	if !ok {
		return models.Media{}, ErrNotFound
	}
	m.Likes = addUnique(m.Likes, userID)
	m.Dislikes = remove(m.Dislikes, userID)
	s.media[mediaID] = m
	return m, nil
}

func (s *MemoryStore) Unlike(_ context.Context, mediaID, userID primitive.ObjectID) (models.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[mediaID]
	if !ok {
		return models.Media{}, ErrNotFound
	}
	m.Likes = remove(m.Likes, userID)
	s.media[mediaID] = m
	return m, nil
}

func (s *MemoryStore) Dislike(_ context.Context, mediaID, userID primitive.ObjectID) (models.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[mediaID]
	if !ok {
		return models.Media{}, ErrNotFound
	}
	m.Dislikes = addUnique(m.Dislikes, userID)
	m.Likes = remove(m.Likes, userID)
	s.media[mediaID] = m
	return m, nil
}

func (s *MemoryStore) Undislike(_ context.Context, mediaID, userID primitive.ObjectID) (models.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[mediaID]
	if !ok {
		return models.Media{}, ErrNotFound
	}
	m.Dislikes = remove(m.Dislikes, userID)
	s.media[mediaID] = m
	return m, nil
}

func (s *MemoryStore) AddComment(_ context.Context, mediaID primitive.ObjectID, comment models.Comment) (models.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[mediaID]
	if !ok {
		return models.Media{}, ErrNotFound
	}
	m.Comments = append(m.Comments, comment)
	s.media[mediaID] = m
	return m, nil
}

func (s *MemoryStore) UpdateComment(_ context.Context, mediaID, commentID, authorID primitive.ObjectID, text string) (models.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[mediaID]
	if !ok {
		return models.Media{}, ErrNotFound
	}
	for i, c := range m.Comments {
		if c.ID == commentID {
			if c.UserID != authorID {
				return models.Media{}, ErrForbidden
			}
			m.Comments[i].Text = text
			s.media[mediaID] = m
			return m, nil
		}
	}
	return models.Media{}, ErrNotFound
}

func (s *MemoryStore) DeleteComment(_ context.Context, mediaID, commentID, authorID primitive.ObjectID) (models.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[mediaID]
	if !ok {
		return models.Media{}, ErrNotFound
	}
	for i, c := range m.Comments {
		if c.ID == commentID {
			if c.UserID != authorID {
				return models.Media{}, ErrForbidden
			}
			m.Comments = append(m.Comments[:i], m.Comments[i+1:]...)
			s.media[mediaID] = m
			return m, nil
		}
	}
	return models.Media{}, ErrNotFound
}

func (s *MemoryStore) GetFollowing(_ context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.following[userID], nil
}
