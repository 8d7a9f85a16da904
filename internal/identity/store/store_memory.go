package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"taskboard/internal/identity"
	"taskboard/pkg/platform/sentinel"
)

// InMemoryStore keeps users and role assignments in process memory. It backs
// unit tests and local development.
type InMemoryStore struct {
	mu         sync.RWMutex
	users      map[int64]identity.User
	roles      map[int64]identity.Role
	assignment map[int64]int64 // userID -> roleID
	nextUserID int64
	nextRoleID int64
}

func NewInMemory() *InMemoryStore {
	s := &InMemoryStore{
		users:      make(map[int64]identity.User),
		roles:      make(map[int64]identity.Role),
		assignment: make(map[int64]int64),
		nextUserID: 1,
		nextRoleID: 1,
	}
	// Seed the two built-in roles, matching db/schema.sql.
	for _, name := range []string{identity.RoleAdmin, identity.RoleUser} {
		s.roles[s.nextRoleID] = identity.Role{ID: s.nextRoleID, Name: name, CreatedAt: time.Now()}
		s.nextRoleID++
	}
	return s
}

func (s *InMemoryStore) Create(_ context.Context, user *identity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.IsDeleted {
			continue
		}
		if strings.EqualFold(existing.Email, user.Email) || existing.Username == user.Username {
			return sentinel.ErrConflict
		}
	}
	user.ID = s.nextUserID
	s.nextUserID++
	s.users[user.ID] = *user
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[id]; ok && !user.IsDeleted {
		return user, nil
	}
	return identity.User{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if !user.IsDeleted && strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return identity.User{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByUsername(_ context.Context, username string) (identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if !user.IsDeleted && user.Username == username {
			return user, nil
		}
	}
	return identity.User{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) Update(_ context.Context, user identity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.users[user.ID] = user
	return nil
}

func (s *InMemoryStore) ListProfiles(_ context.Context) ([]identity.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var profiles []identity.Profile
	for _, user := range s.users {
		if !user.IsDeleted {
			profiles = append(profiles, identity.ProfileOf(user))
		}
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Username < profiles[j].Username })
	return profiles, nil
}

func (s *InMemoryStore) FindProfiles(_ context.Context, ids []int64) (map[int64]identity.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profiles := make(map[int64]identity.Profile, len(ids))
	for _, id := range ids {
		if user, ok := s.users[id]; ok && !user.IsDeleted {
			profiles[id] = identity.ProfileOf(user)
		}
	}
	return profiles, nil
}

// Delete soft-deletes a user. Exposed for tests exercising weak actor
// references in audit enrichment.
func (s *InMemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	user.IsDeleted = true
	s.users[id] = user
	return nil
}

func (s *InMemoryStore) FindByName(_ context.Context, name string) (identity.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, role := range s.roles {
		if role.Name == name {
			return role, nil
		}
	}
	return identity.Role{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) RoleOf(_ context.Context, userID int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if roleID, ok := s.assignment[userID]; ok {
		if role, found := s.roles[roleID]; found {
			return role.Name, nil
		}
	}
	return identity.RoleUser, nil
}

func (s *InMemoryStore) Assign(_ context.Context, userID, roleID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[roleID]; !ok {
		return sentinel.ErrNotFound
	}
	s.assignment[userID] = roleID
	return nil
}
