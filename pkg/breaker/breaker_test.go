package breaker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

var errUpstream = errors.New("upstream failure")

type transitionRecorder struct {
	mu          sync.Mutex
	transitions []string
}

func (r *transitionRecorder) record(_ string, from, to gobreaker.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, from.String()+"->"+to.String())
}

func (r *transitionRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.transitions...)
}

func newTestBreaker(rec *transitionRecorder, cooldown time.Duration) *Breaker {
	cfg := Config{
		Name:             "test",
		CallTimeout:      50 * time.Millisecond,
		FailureThreshold: 0.5,
		MinRequests:      4,
		Cooldown:         cooldown,
	}
	if rec != nil {
		cfg.OnStateChange = rec.record
	}
	return New(cfg)
}

func failingCall(ctx context.Context) (string, error) {
	return "", errUpstream
}

func okCall(ctx context.Context) (string, error) {
	return "ok", nil
}

func TestBreaker_PassThroughWhileClosed(t *testing.T) {
	b := newTestBreaker(nil, time.Second)

	got, err := Do(b, context.Background(), okCall)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "ok" {
		t.Errorf("expected ok, got %q", got)
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("expected closed, got %s", b.State())
	}
}

func TestBreaker_StaysClosedBelowVolumeFloor(t *testing.T) {
	b := newTestBreaker(nil, time.Second)

	// Three failures is 100% failure rate but below the 4-call floor.
	for i := 0; i < 3; i++ {
		if _, err := Do(b, context.Background(), failingCall); !errors.Is(err, errUpstream) {
			t.Fatalf("expected upstream error, got %v", err)
		}
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("expected closed below volume floor, got %s", b.State())
	}
}

func TestBreaker_OpensAtThresholdAndFailsFast(t *testing.T) {
	rec := &transitionRecorder{}
	b := newTestBreaker(rec, time.Second)

	for i := 0; i < 4; i++ {
		_, _ = Do(b, context.Background(), failingCall)
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("expected open after 4 failures, got %s", b.State())
	}

	// While open the wrapped call must not run.
	invoked := false
	_, err := Do(b, context.Background(), func(ctx context.Context) (string, error) {
		invoked = true
		return "", nil
	})
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
	if invoked {
		t.Error("wrapped call was invoked while breaker was open")
	}

	transitions := rec.all()
	if len(transitions) == 0 || transitions[0] != "closed->open" {
		t.Errorf("expected first transition closed->open, got %v", transitions)
	}
}

func TestBreaker_HalfOpenProbeSuccessCloses(t *testing.T) {
	rec := &transitionRecorder{}
	b := newTestBreaker(rec, 50*time.Millisecond)

	for i := 0; i < 4; i++ {
		_, _ = Do(b, context.Background(), failingCall)
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}

	time.Sleep(80 * time.Millisecond)

	// The first call after the cooldown is the probe.
	got, err := Do(b, context.Background(), okCall)
	if err != nil {
		t.Fatalf("expected probe to pass, got %v", err)
	}
	if got != "ok" {
		t.Errorf("expected ok, got %q", got)
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("expected closed after successful probe, got %s", b.State())
	}

	transitions := rec.all()
	want := []string{"closed->open", "open->half-open", "half-open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("expected transitions %v, got %v", want, transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d: expected %s, got %s", i, want[i], transitions[i])
		}
	}
}

func TestBreaker_HalfOpenProbeFailureReopens(t *testing.T) {
	b := newTestBreaker(nil, 50*time.Millisecond)

	for i := 0; i < 4; i++ {
		_, _ = Do(b, context.Background(), failingCall)
	}
	time.Sleep(80 * time.Millisecond)

	// Failed probe sends the breaker straight back to open.
	if _, err := Do(b, context.Background(), failingCall); !errors.Is(err, errUpstream) {
		t.Fatalf("expected upstream error from probe, got %v", err)
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("expected open after failed probe, got %s", b.State())
	}
	if _, err := Do(b, context.Background(), okCall); !errors.Is(err, ErrOpen) {
		t.Errorf("expected ErrOpen right after failed probe, got %v", err)
	}
}

func TestBreaker_TimeoutCountsAsFailure(t *testing.T) {
	b := newTestBreaker(nil, time.Second)

	// Ignores its context entirely; the late completion must be discarded.
	slowCall := func(ctx context.Context) (string, error) {
		time.Sleep(300 * time.Millisecond)
		return "late", nil
	}

	for i := 0; i < 4; i++ {
		_, err := Do(b, context.Background(), slowCall)
		if !errors.Is(err, ErrTimeout) {
			t.Fatalf("call %d: expected ErrTimeout, got %v", i, err)
		}
	}
	if b.State() != gobreaker.StateOpen {
		t.Errorf("expected open after 4 timeouts, got %s", b.State())
	}
}

func TestBreaker_IsSuccessfulSkipsCounting(t *testing.T) {
	errDefinitive := errors.New("definitive answer")
	b := New(Config{
		Name:             "test-classified",
		CallTimeout:      50 * time.Millisecond,
		FailureThreshold: 0.5,
		MinRequests:      4,
		Cooldown:         time.Second,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errDefinitive)
		},
	})

	// Ten "failures" that the classifier treats as healthy answers.
	for i := 0; i < 10; i++ {
		_, err := Do(b, context.Background(), func(ctx context.Context) (string, error) {
			return "", errDefinitive
		})
		if !errors.Is(err, errDefinitive) {
			t.Fatalf("expected definitive error surfaced, got %v", err)
		}
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("expected closed, got %s", b.State())
	}
}
