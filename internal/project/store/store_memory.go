package store

import (
	"context"
	"sort"
	"sync"

	"taskboard/internal/project"
	"taskboard/pkg/platform/sentinel"
)

// InMemoryStore keeps projects and memberships in process memory. It backs
// unit tests and local development.
type InMemoryStore struct {
	mu           sync.RWMutex
	projects     map[int64]project.Project
	members      map[int64]project.Member
	nextID       int64
	nextMemberID int64
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		projects:     make(map[int64]project.Project),
		members:      make(map[int64]project.Member),
		nextID:       1,
		nextMemberID: 1,
	}
}

func (s *InMemoryStore) Create(_ context.Context, p *project.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextID
	s.nextID++
	s.projects[p.ID] = *p
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.projects[id]; ok && !p.IsDeleted {
		return p, nil
	}
	return project.Project{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context) ([]project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var projects []project.Project
	for _, p := range s.projects {
		if !p.IsDeleted {
			projects = append(projects, p)
		}
	}
	sort.Slice(projects, func(i, j int) bool {
		if !projects[i].CreatedAt.Equal(projects[j].CreatedAt) {
			return projects[i].CreatedAt.After(projects[j].CreatedAt)
		}
		return projects[i].ID > projects[j].ID
	})
	return projects, nil
}

func (s *InMemoryStore) Update(_ context.Context, p project.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.projects[p.ID]; !ok || existing.IsDeleted {
		return sentinel.ErrNotFound
	}
	s.projects[p.ID] = p
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok || p.IsDeleted {
		return sentinel.ErrNotFound
	}
	p.IsDeleted = true
	s.projects[id] = p
	return nil
}

func (s *InMemoryStore) IDsCreatedBy(_ context.Context, userID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []int64
	for _, p := range s.projects {
		if !p.IsDeleted && p.CreatedBy != nil && *p.CreatedBy == userID {
			ids = append(ids, p.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *InMemoryStore) Add(_ context.Context, m *project.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.members {
		if existing.ProjectID == m.ProjectID && existing.UserID == m.UserID {
			return sentinel.ErrConflict
		}
	}
	m.ID = s.nextMemberID
	s.nextMemberID++
	s.members[m.ID] = *m
	return nil
}

func (s *InMemoryStore) Remove(_ context.Context, projectID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.members {
		if m.ProjectID == projectID && m.UserID == userID {
			delete(s.members, id)
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByProject(_ context.Context, projectID int64) ([]project.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var members []project.Member
	for _, m := range s.members {
		if m.ProjectID == projectID {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, nil
}

func (s *InMemoryStore) ProjectIDsFor(_ context.Context, userID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []int64
	for _, m := range s.members {
		if m.UserID == userID {
			ids = append(ids, m.ProjectID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *InMemoryStore) IsMember(_ context.Context, projectID, userID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.members {
		if m.ProjectID == projectID && m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}
