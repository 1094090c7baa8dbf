// Package cleanup deletes generated clips once their retention window ends.
package cleanup

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/therealutkarshpriyadarshi/ytclipper/internal/fileutil"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/metrics"
	"github.com/therealutkarshpriyadarshi/ytclipper/pkg/models"
)

// ClipPattern matches generated clip files in the work directory.
const ClipPattern = "clip_*.mp4"

// ExpireFunc runs after an expired clip's file has been deleted.
type ExpireFunc func(ctx context.Context, clip *models.ClipArtifact)

// Scheduler deletes clip files when they reach their ExpiresAt time
type Scheduler struct {
	queue    *DueQueue
	mu       sync.Mutex
	interval time.Duration
	onExpire []ExpireFunc
	now      func() time.Time
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	started  bool
}

// NewScheduler creates a scheduler that checks for due clips every interval
func NewScheduler(interval time.Duration, onExpire ...ExpireFunc) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())

	q := &DueQueue{}
	heap.Init(q)

	return &Scheduler{
		queue:    q,
		interval: interval,
		onExpire: onExpire,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins the cleanup loop
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go s.loop()
	log.Info().Dur("interval", s.interval).Msg("Clip cleanup scheduler started")
}

// Stop stops the loop. Clips still pending are left on disk for Sweep.
func (s *Scheduler) Stop() {
	s.cancel()
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return
	}
	<-s.done
	log.Info().Int("pending", s.Pending()).Msg("Clip cleanup scheduler stopped")
}

// Schedule queues clip for deletion at clip.ExpiresAt
func (s *Scheduler) Schedule(clip *models.ClipArtifact) {
	s.mu.Lock()
	defer s.mu.Unlock()

	heap.Push(s.queue, &DueItem{Clip: clip, Due: clip.ExpiresAt})
	metrics.ClipsPendingCleanup.Set(float64(s.queue.Len()))
}

// Pending returns the number of clips awaiting deletion
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.queue.Len()
}

// RunDue deletes every clip due at or before now and returns how many were removed
func (s *Scheduler) RunDue(now time.Time) int {
	s.mu.Lock()
	var due []*models.ClipArtifact
	for s.queue.Len() > 0 && !s.queue.Peek().Due.After(now) {
		due = append(due, heap.Pop(s.queue).(*DueItem).Clip)
	}
	metrics.ClipsPendingCleanup.Set(float64(s.queue.Len()))
	s.mu.Unlock()

	removed := 0
	for _, clip := range due {
		if fileutil.Delete(clip.Path) {
			removed++
			metrics.ClipsDeletedTotal.WithLabelValues("expired").Inc()
		}
		for _, fn := range s.onExpire {
			fn(s.ctx, clip)
		}
		log.Debug().Str("clip_id", clip.ID).Str("path", clip.Path).Msg("Expired clip removed")
	}
	return removed
}

func (s *Scheduler) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.RunDue(s.now())
		}
	}
}

// Sweep removes clip files in dir last modified more than olderThan ago.
// It recovers clips orphaned by a restart.
func Sweep(dir string, olderThan time.Duration) (int, error) {
	stale, err := fileutil.OlderThan(dir, ClipPattern, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to list clips: %w", err)
	}
	n := fileutil.DeleteMany(stale)
	metrics.ClipsDeletedTotal.WithLabelValues("sweep").Add(float64(n))
	return n, nil
}

// DueQueue orders clips by deletion time, earliest first
type DueQueue []*DueItem

// DueItem is a clip waiting in the DueQueue
type DueItem struct {
	Clip  *models.ClipArtifact
	Due   time.Time
	Index int
}

func (q DueQueue) Len() int { return len(q) }

func (q DueQueue) Less(i, j int) bool {
	return q[i].Due.Before(q[j].Due)
}

func (q DueQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].Index = i
	q[j].Index = j
}

func (q *DueQueue) Push(x interface{}) {
	n := len(*q)
	item := x.(*DueItem)
	item.Index = n
	*q = append(*q, item)
}

func (q *DueQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.Index = -1
	*q = old[0 : n-1]
	return item
}

// Peek returns the earliest item without removing it
func (q DueQueue) Peek() *DueItem {
	return q[0]
}
