package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/suryalive/suryalive/internal/observe"
	"github.com/suryalive/suryalive/pkg/audio"
)

// Scheduler sequences model audio segments for gapless playback on an
// [audio.OutputStream]. Segments play back-to-back: each new segment starts
// at the later of the end of the previous segment and the output clock's
// current position, so bursts queue up seamlessly while a late segment after
// a gap starts immediately. [Scheduler.Interrupt] stops every segment that is
// still live and resets the timeline.
//
// All methods are safe for concurrent use.
type Scheduler struct {
	out     audio.OutputStream
	metrics *observe.Metrics

	mu sync.Mutex
	// nextStart is the high-water mark of the playback timeline: the end
	// position of the last scheduled segment on the output clock.
	nextStart time.Duration
	live      map[*liveSource]struct{}
}

// liveSource tracks one scheduled segment until it finishes or is stopped.
type liveSource struct {
	src audio.Source
}

// NewScheduler creates a [Scheduler] that plays on out. A nil metrics falls
// back to [observe.DefaultMetrics].
func NewScheduler(out audio.OutputStream, metrics *observe.Metrics) *Scheduler {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Scheduler{
		out:     out,
		metrics: metrics,
		live:    make(map[*liveSource]struct{}),
	}
}

// Schedule decodes a mono 16-bit PCM segment at the output sample rate and
// queues it for playback after everything scheduled before it.
func (s *Scheduler) Schedule(ctx context.Context, pcm []byte) error {
	buf, err := audio.PCM16ToFloat(pcm, audio.OutputRate, 1)
	if err != nil {
		return fmt.Errorf("scheduler: decode segment: %w", err)
	}

	s.mu.Lock()
	startAt := s.nextStart
	if now := s.out.Now(); now > startAt {
		startAt = now
	}
	entry := &liveSource{}
	s.live[entry] = struct{}{}
	entry.src = s.out.Start(buf, startAt, func() { s.remove(entry) })
	s.nextStart = startAt + buf.Duration()
	s.mu.Unlock()

	s.metrics.SegmentsScheduled.Add(ctx, 1)
	return nil
}

// Interrupt stops all live segments and resets the playback timeline so the
// next segment starts immediately.
func (s *Scheduler) Interrupt(ctx context.Context) {
	s.mu.Lock()
	stopped := make([]*liveSource, 0, len(s.live))
	for entry := range s.live {
		stopped = append(stopped, entry)
	}
	s.live = make(map[*liveSource]struct{})
	s.nextStart = 0
	s.mu.Unlock()

	for _, entry := range stopped {
		entry.src.Stop()
	}
	s.metrics.Interruptions.Add(ctx, 1)
}

// Live reports how many scheduled segments have neither finished nor been
// stopped yet.
func (s *Scheduler) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

func (s *Scheduler) remove(entry *liveSource) {
	s.mu.Lock()
	delete(s.live, entry)
	s.mu.Unlock()
}
