package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"taskboard/internal/task"
	"taskboard/pkg/platform/sentinel"
)

// InMemoryStore keeps tasks in process memory. It backs unit tests and local
// development.
type InMemoryStore struct {
	mu     sync.RWMutex
	tasks  map[int64]task.Task
	nextID int64
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{tasks: make(map[int64]task.Task), nextID: 1}
}

func (s *InMemoryStore) Create(_ context.Context, t *task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextID
	s.nextID++
	s.tasks[t.ID] = *t
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tasks[id]; ok && !t.IsDeleted {
		return t, nil
	}
	return task.Task{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context, q ListQuery) ([]task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []task.Task
	for _, t := range s.tasks {
		if t.IsDeleted {
			continue
		}
		if q.ProjectID != nil && t.ProjectID != *q.ProjectID {
			continue
		}
		if q.ProjectIDs != nil && !slices.Contains(q.ProjectIDs, t.ProjectID) {
			continue
		}
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].ID > tasks[j].ID
	})
	return tasks, nil
}

func (s *InMemoryStore) Update(_ context.Context, t task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.tasks[t.ID]; !ok || existing.IsDeleted {
		return sentinel.ErrNotFound
	}
	s.tasks[t.ID] = t
	return nil
}

func (s *InMemoryStore) TitleExists(_ context.Context, title string, excludeID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if !t.IsDeleted && t.ID != excludeID && t.Title == title {
			return true, nil
		}
	}
	return false, nil
}
