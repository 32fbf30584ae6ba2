package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carefolio/api/internal/platform/httperr"
)

type mockRepo struct {
	mu    sync.Mutex
	store []*Notification
	err   error
}

func (m *mockRepo) Create(_ context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	m.store = append(m.store, n)
	return nil
}
func (m *mockRepo) ListByUser(_ context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var r []*Notification
	for _, n := range m.store {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			r = append(r, n)
		}
	}
	return r, len(r), nil
}
func (m *mockRepo) MarkRead(_ context.Context, userID, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.store {
		if n.ID == id && n.UserID == userID {
			now := time.Now()
			n.IsRead, n.ReadAt = true, &now
			return true, nil
		}
	}
	return false, nil
}
func (m *mockRepo) MarkAllRead(_ context.Context, userID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.store {
		if n.UserID == userID && !n.IsRead {
			now := time.Now()
			n.IsRead, n.ReadAt = true, &now
			count++
		}
	}
	return count, nil
}

func TestNotifyStoresNotification(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, zerolog.Nop())
	userID := uuid.New()

	svc.Notify(context.Background(), userID, TypeHealthAlert, "High Blood Pressure Detected", "Your BP reading is 150/95. Please consult your doctor.")

	items, total, err := svc.List(context.Background(), userID, false, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || items[0].Type != TypeHealthAlert {
		t.Fatalf("got %d notifications, want 1 health_alert", total)
	}
}

func TestNotifySwallowsRepoError(t *testing.T) {
	repo := &mockRepo{err: errors.New("db down")}
	svc := NewService(repo, zerolog.Nop())
	// Must not panic or surface the error.
	svc.Notify(context.Background(), uuid.New(), TypeSystem, "t", "m")
}

func TestNotifyCoercesUnknownType(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, zerolog.Nop())
	userID := uuid.New()
	svc.Notify(context.Background(), userID, Type("bogus"), "t", "m")
	items, _, _ := svc.List(context.Background(), userID, false, 20, 0)
	if len(items) != 1 || items[0].Type != TypeSystem {
		t.Fatalf("unknown type should be stored as system, got %+v", items)
	}
}

func TestMarkReadOwnership(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, zerolog.Nop())
	owner := uuid.New()
	svc.Notify(context.Background(), owner, TypeMessage, "t", "m")
	id := repo.store[0].ID

	if err := svc.MarkRead(context.Background(), uuid.New(), id); !httperr.IsKind(err, httperr.KindNotFound) {
		t.Fatalf("other user's mark-read should be not found, got %v", err)
	}
	if err := svc.MarkRead(context.Background(), owner, id); err != nil {
		t.Fatalf("owner mark-read: %v", err)
	}
	if n := repo.store[0]; !n.IsRead || n.ReadAt == nil {
		t.Errorf("mark-read must set the read timestamp, got %+v", n)
	}
}

func TestMarkAllReadCountsOnlyUnread(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, zerolog.Nop())
	userID := uuid.New()
	svc.Notify(context.Background(), userID, TypeReminder, "a", "m")
	svc.Notify(context.Background(), userID, TypeReminder, "b", "m")
	repo.store[0].IsRead = true

	n, err := svc.MarkAllRead(context.Background(), userID)
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if n != 1 {
		t.Errorf("updated %d, want 1", n)
	}
	if repo.store[1].ReadAt == nil {
		t.Error("mark-all-read must stamp read_at on updated rows")
	}
}
