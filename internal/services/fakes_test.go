package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/appforge/backend/internal/events"
	"github.com/appforge/backend/internal/models"
	"github.com/appforge/backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type memAudit struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (a *memAudit) Log(_ context.Context, e models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return nil
}

func (a *memAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type published struct {
	stream string
	event  events.Event
}

type memPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *memPublisher) Publish(_ context.Context, stream string, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{stream: stream, event: e})
	return nil
}

func (p *memPublisher) last() published {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return published{}
	}
	return p.events[len(p.events)-1]
}

func (p *memPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type memUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[string]*models.User{}}
}

func (s *memUserStore) Create(_ context.Context, address string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[address]; ok {
		return nil, repositories.ErrAlreadyExists
	}
	now := time.Now()
	u := &models.User{Address: address, CreatedAt: now, LastActiveAt: now}
	s.users[address] = u
	cp := *u
	return &cp, nil
}

func (s *memUserStore) GetByAddress(_ context.Context, address string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[address]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memUserStore) UpdateLastActive(_ context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[address]; ok {
		u.LastActiveAt = time.Now()
	}
	return nil
}

type memTemplateStore struct {
	mu        sync.Mutex
	templates map[uuid.UUID]*models.Template
}

func newMemTemplateStore() *memTemplateStore {
	return &memTemplateStore{templates: map[uuid.UUID]*models.Template{}}
}

func (s *memTemplateStore) Create(_ context.Context, t *models.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	s.templates[t.ID] = &cp
	return nil
}

func (s *memTemplateStore) GetByID(_ context.Context, id uuid.UUID) (*models.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memTemplateStore) Update(_ context.Context, t *models.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[t.ID]; !ok {
		return repositories.ErrNotFound
	}
	t.UpdatedAt = time.Now()
	cp := *t
	s.templates[t.ID] = &cp
	return nil
}

func (s *memTemplateStore) UpdateStatus(_ context.Context, id uuid.UUID, from, to string, note *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[id]
	if !ok || t.Status != from {
		return repositories.ErrConflict
	}
	t.Status = to
	t.ModerationNote = note
	return nil
}

func (s *memTemplateStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.templates, id)
	return nil
}

func (s *memTemplateStore) List(_ context.Context, f repositories.ListFilter) ([]models.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Template{}
	for _, t := range s.templates {
		if f.OwnerAddress != nil && t.OwnerAddress != *f.OwnerAddress {
			continue
		}
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (s *memTemplateStore) put(t models.Template) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	s.templates[t.ID] = &t
	return t.ID
}

type memAppStore struct {
	mu   sync.Mutex
	apps map[uuid.UUID]*models.App
}

func newMemAppStore() *memAppStore {
	return &memAppStore{apps: map[uuid.UUID]*models.App{}}
}

func (s *memAppStore) Create(_ context.Context, a *models.App) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	s.apps[a.ID] = &cp
	return nil
}

func (s *memAppStore) GetByID(_ context.Context, id uuid.UUID) (*models.App, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.apps[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memAppStore) Update(_ context.Context, a *models.App) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[a.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *a
	s.apps[a.ID] = &cp
	return nil
}

func (s *memAppStore) UpdateStatus(_ context.Context, id uuid.UUID, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.apps[id]
	if !ok || a.Status != from {
		return repositories.ErrConflict
	}
	a.Status = to
	return nil
}

func (s *memAppStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.apps, id)
	return nil
}

func (s *memAppStore) CountByTemplate(_ context.Context, templateID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.apps {
		if a.TemplateID == templateID {
			n++
		}
	}
	return n, nil
}

func (s *memAppStore) List(_ context.Context, f repositories.ListFilter) ([]models.App, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.App{}
	for _, a := range s.apps {
		if f.OwnerAddress != nil && a.OwnerAddress != *f.OwnerAddress {
			continue
		}
		if f.Status != nil && a.Status != *f.Status {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

// newTestSettings returns a redis-backed settings store with both flags on.
func newTestSettings(t *testing.T) *repositories.SettingsRepo {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return repositories.NewSettingsRepo(rdb, models.Settings{ModerationEnabled: true, SubmissionsOpen: true})
}

func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}
