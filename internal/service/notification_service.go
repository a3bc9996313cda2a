package service

import (
	"sync"
	"time"

	"document-qa-be/internal/entity"
	"document-qa-be/internal/pkg/logger"
	"document-qa-be/pkg/clock"
)

type INotificationService interface {
	Push(message string) *entity.Notification
	List() []*entity.Notification
	RemoveById(id int64) bool
	RemoveAt(index int) bool
}

// notificationService holds the transient FIFO of user-facing messages.
// Expiry models "the oldest message leaves after the TTL of total pending
// time": one timer is armed when the queue goes non-empty, it always pops
// the current front on fire, and is re-armed while anything remains.
type notificationService struct {
	mu     sync.Mutex
	queue  []*entity.Notification
	nextId int64
	timer  clock.Timer

	ttl    time.Duration
	clk    clock.Clock
	logger logger.ILogger
}

func NewNotificationService(clk clock.Clock, ttl time.Duration, log logger.ILogger) INotificationService {
	if ttl <= 0 {
		ttl = 3 * time.Second
	}
	return &notificationService{
		nextId: 1,
		ttl:    ttl,
		clk:    clk,
		logger: log,
	}
}

func (s *notificationService) Push(message string) *entity.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := &entity.Notification{
		Id:        s.nextId,
		Message:   message,
		CreatedAt: s.clk.Now().Format(time.RFC3339),
	}
	s.nextId++
	s.queue = append(s.queue, n)

	if len(s.queue) == 1 {
		s.armExpiryLocked()
	}

	s.logger.Info("NotificationService", "Notification pushed", map[string]interface{}{
		"id":      n.Id,
		"message": message,
	})
	return n
}

func (s *notificationService) List() []*entity.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*entity.Notification, len(s.queue))
	copy(out, s.queue)
	return out
}

// RemoveById deletes one message by identity, immune to positions shifting
// under concurrent pushes and expiry.
func (s *notificationService) RemoveById(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.queue {
		if n.Id == id {
			s.removeIndexLocked(i)
			return true
		}
	}
	return false
}

// RemoveAt deletes by position, recomputed against the live queue at call
// time. Kept for the dismiss-by-slot contract; out-of-range is a no-op.
func (s *notificationService) RemoveAt(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.queue) {
		return false
	}
	s.removeIndexLocked(index)
	return true
}

func (s *notificationService) removeIndexLocked(index int) {
	s.queue = append(s.queue[:index], s.queue[index+1:]...)
	if len(s.queue) == 0 && s.timer != nil {
		// A drained queue must not carry an armed timer: the next push
		// arms a fresh one, and a stale fire would pop it early.
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *notificationService) armExpiryLocked() {
	s.timer = s.clk.AfterFunc(s.ttl, s.expireFront)
}

func (s *notificationService) expireFront() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return
	}
	s.removeIndexLocked(0)
	if len(s.queue) > 0 {
		s.armExpiryLocked()
	}
}
