package handlers

import (
	"context"
	"errors"
	"sort"
	"time"

	"bus-tracking-backend/internal/models"
	"bus-tracking-backend/internal/store"
)

// errStorage имитирует отказ хранилища
var errStorage = errors.New("хранилище недоступно")

// memBusStore хранилище позиций в памяти для тестов хендлеров
type memBusStore struct {
	buses map[string]models.Bus
	seq   map[string]int64
	next  int64
	fail  bool
}

func newMemBusStore() *memBusStore {
	return &memBusStore{
		buses: make(map[string]models.Bus),
		seq:   make(map[string]int64),
	}
}

func (s *memBusStore) Upsert(_ context.Context, busID string, lat, lng float64) (models.Bus, error) {
	if s.fail {
		return models.Bus{}, errStorage
	}
	bus, ok := s.buses[busID]
	if !ok {
		s.next++
		bus = models.Bus{ID: uint(s.next), BusID: busID}
	}
	bus.Latitude = lat
	bus.Longitude = lng
	bus.UpdatedAt = time.Now()
	s.buses[busID] = bus

	// Порядок поступления фиксируем счетчиком, чтобы сортировка в
	// тестах не зависела от разрешения часов
	s.next++
	s.seq[busID] = s.next
	return bus, nil
}

func (s *memBusStore) ListAll(_ context.Context) ([]models.Bus, error) {
	if s.fail {
		return nil, errStorage
	}
	all := make([]models.Bus, 0, len(s.buses))
	for _, bus := range s.buses {
		all = append(all, bus)
	}
	sort.Slice(all, func(i, j int) bool {
		return s.seq[all[i].BusID] > s.seq[all[j].BusID]
	})
	return all, nil
}

func (s *memBusStore) Exists(_ context.Context, busID string) (bool, error) {
	if s.fail {
		return false, errStorage
	}
	_, ok := s.buses[busID]
	return ok, nil
}

// memUserStore хранилище аккаунтов в памяти для тестов хендлеров
type memUserStore struct {
	users map[string]models.User
	next  uint
	fail  bool
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]models.User)}
}

func (s *memUserStore) Create(_ context.Context, user *models.User) error {
	if s.fail {
		return errStorage
	}
	if _, ok := s.users[user.Username]; ok {
		return store.ErrDuplicateUsername
	}
	s.next++
	user.ID = s.next
	user.CreatedAt = time.Now()
	s.users[user.Username] = *user
	return nil
}

func (s *memUserStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	if s.fail {
		return models.User{}, errStorage
	}
	user, ok := s.users[username]
	if !ok {
		return models.User{}, store.ErrUserNotFound
	}
	return user, nil
}

func (s *memUserStore) FindByID(_ context.Context, id uint) (models.User, error) {
	if s.fail {
		return models.User{}, errStorage
	}
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return models.User{}, store.ErrUserNotFound
}
