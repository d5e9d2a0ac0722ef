package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/notify"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/state"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/syncer"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/pkg/models"
)

type countingProber struct {
	mu    sync.Mutex
	calls int
}

func (p *countingProber) CheckConnectivity(context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return true
}

func (p *countingProber) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type recordingSyncer struct {
	mu       sync.Mutex
	reasons  []syncer.Reason
	inactive []time.Duration
}

func (s *recordingSyncer) Trigger(r syncer.Reason) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reasons = append(s.reasons, r)
	return true
}

func (s *recordingSyncer) CheckInactivity(threshold time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inactive = append(s.inactive, threshold)
	return false
}

func TestScheduler_ProbeRunsImmediately(t *testing.T) {
	p := &countingProber{}
	s := New(Config{ProbeInterval: time.Hour, SyncInterval: time.Hour, InactivityPoll: time.Hour}, p, &recordingSyncer{}, nil, nil)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return p.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{TagProbe, TagSync, TagInactivity}, s.Tags())
}

func TestScheduler_TimerJobsWaitForFirstInterval(t *testing.T) {
	rs := &recordingSyncer{}
	s := New(Config{SyncInterval: time.Second, InactivityPoll: time.Second, InactivityThreshold: 5 * time.Minute}, nil, rs, nil, nil)
	require.NoError(t, s.Start())
	defer s.Stop()

	rs.mu.Lock()
	assert.Empty(t, rs.reasons)
	rs.mu.Unlock()

	assert.Eventually(t, func() bool {
		rs.mu.Lock()
		defer rs.mu.Unlock()
		return len(rs.reasons) > 0 && len(rs.inactive) > 0
	}, 3*time.Second, 20*time.Millisecond)

	rs.mu.Lock()
	defer rs.mu.Unlock()
	assert.Equal(t, syncer.ReasonPeriodic, rs.reasons[0])
	assert.Equal(t, 5*time.Minute, rs.inactive[0])
}

func TestScheduler_ZeroIntervalSkipsJob(t *testing.T) {
	s := New(Config{SyncInterval: time.Minute}, &countingProber{}, &recordingSyncer{}, nil, nil)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Equal(t, []string{TagSync}, s.Tags())
}

type recordingNotifier struct {
	sent []notify.Notification
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notification) error {
	r.sent = append(r.sent, n)
	return r.err
}

func TestDueReminder(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := state.NewContainer()
	require.NoError(t, c.Dispatch(
		state.AddFlashcard{Flashcard: models.Flashcard{ID: "a", Question: "q", Answer: "a", Difficulty: models.DifficultyEasy, NextReview: now.Add(-time.Hour)}},
		state.AddFlashcard{Flashcard: models.Flashcard{ID: "b", Question: "q", Answer: "a", Difficulty: models.DifficultyEasy, NextReview: now.Add(-time.Minute)}},
		state.AddFlashcard{Flashcard: models.Flashcard{ID: "c", Question: "q", Answer: "a", Difficulty: models.DifficultyEasy, NextReview: now.Add(time.Hour)}},
	))

	tests := []struct {
		name    string
		hour    int
		wantDue int
	}{
		{"inside window", 12, 2},
		{"before window", 6, 0},
		{"after window", 23, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &recordingNotifier{}
			at := time.Date(2026, 3, 1, tt.hour, 0, 0, 0, time.UTC)
			r := &DueReminder{
				Container: c, Notifier: n, UserID: "u1",
				StartHour: DefaultNotificationStartHour, EndHour: DefaultNotificationEndHour,
				Now: func() time.Time { return at },
			}
			got, err := r.Check(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantDue, got)
			if tt.wantDue > 0 {
				require.Len(t, n.sent, 1)
				assert.Equal(t, notify.KindInfo, n.sent[0].Kind)
				assert.Contains(t, n.sent[0].Message, "2 flashcards")
			} else {
				assert.Empty(t, n.sent)
			}
		})
	}
}

func TestDueReminder_NotifierError(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := state.NewContainer()
	require.NoError(t, c.Dispatch(state.AddFlashcard{Flashcard: models.Flashcard{
		ID: "a", Question: "q", Answer: "a", Difficulty: models.DifficultyHard, NextReview: now,
	}}))

	r := &DueReminder{Container: c, Notifier: &recordingNotifier{err: errors.New("down")}, StartHour: 0, EndHour: 23, Now: func() time.Time { return now }}
	_, err := r.Check(context.Background())
	assert.Error(t, err)
}
