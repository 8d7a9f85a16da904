package store

import (
	"context"
	"sort"
	"sync"

	"taskboard/internal/comment"
	"taskboard/pkg/platform/sentinel"
)

// InMemoryStore keeps comments in process memory. It backs unit tests and
// local development.
type InMemoryStore struct {
	mu       sync.RWMutex
	comments map[int64]comment.Comment
	nextID   int64
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{comments: make(map[int64]comment.Comment), nextID: 1}
}

func (s *InMemoryStore) Create(_ context.Context, c *comment.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.nextID
	s.nextID++
	s.comments[c.ID] = *c
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (comment.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.comments[id]; ok && !c.IsDeleted {
		return c, nil
	}
	return comment.Comment{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByTask(_ context.Context, taskID int64) ([]comment.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var comments []comment.Comment
	for _, c := range s.comments {
		if !c.IsDeleted && c.TaskID == taskID {
			comments = append(comments, c)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].CreatedAt.Before(comments[j].CreatedAt)
		}
		return comments[i].ID < comments[j].ID
	})
	return comments, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok || c.IsDeleted {
		return sentinel.ErrNotFound
	}
	c.IsDeleted = true
	s.comments[id] = c
	return nil
}
