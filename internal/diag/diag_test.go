package diag

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestBufferRecordAndLen(t *testing.T) {
	buf := NewBuffer()

	if buf.Len() != 0 {
		t.Errorf("Expected empty buffer, got %d entries", buf.Len())
	}

	buf.Record(Event{Operation: "safeArrayProcess", Kind: "absent"})
	buf.Record(Event{Operation: "calculateTrend", Kind: "scalar"})

	if buf.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", buf.Len())
	}

	events := buf.Events()
	if events[0].Operation != "safeArrayProcess" {
		t.Errorf("Expected oldest-first order, got %q first", events[0].Operation)
	}
	if events[0].Time.IsZero() {
		t.Error("Expected Record to stamp a time on events without one")
	}
}

func TestBufferTrimsToKeep(t *testing.T) {
	tests := []struct {
		name        string
		max         int
		keep        int
		records     int
		expectedLen int
		// operation of the oldest surviving entry
		expectedOldest string
	}{
		{
			name:           "under max keeps everything",
			max:            10,
			keep:           5,
			records:        10,
			expectedLen:    10,
			expectedOldest: "op-0",
		},
		{
			name:           "one past max trims to keep",
			max:            10,
			keep:           5,
			records:        11,
			expectedLen:    5,
			expectedOldest: "op-6",
		},
		{
			name:           "default sizing trims 1001 to 500",
			max:            DefaultMaxEntries,
			keep:           DefaultKeepEntries,
			records:        DefaultMaxEntries + 1,
			expectedLen:    DefaultKeepEntries,
			expectedOldest: fmt.Sprintf("op-%d", DefaultMaxEntries+1-DefaultKeepEntries),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := NewBufferSize(tt.max, tt.keep)
			for i := 0; i < tt.records; i++ {
				buf.Record(Event{Operation: fmt.Sprintf("op-%d", i)})
			}

			if buf.Len() != tt.expectedLen {
				t.Errorf("Expected %d entries after trim, got %d", tt.expectedLen, buf.Len())
			}

			events := buf.Events()
			if len(events) > 0 && events[0].Operation != tt.expectedOldest {
				t.Errorf("Expected oldest surviving entry %q, got %q", tt.expectedOldest, events[0].Operation)
			}
			// Most recent entry always survives a trim
			if len(events) > 0 {
				want := fmt.Sprintf("op-%d", tt.records-1)
				if events[len(events)-1].Operation != want {
					t.Errorf("Expected newest entry %q, got %q", want, events[len(events)-1].Operation)
				}
			}
		})
	}
}

func TestBufferSizeFallbacks(t *testing.T) {
	buf := NewBufferSize(0, 0)
	if buf.max != DefaultMaxEntries {
		t.Errorf("Expected default max for zero sizing, got %d", buf.max)
	}

	buf = NewBufferSize(10, 50)
	if buf.keep >= buf.max {
		t.Errorf("Expected keep clamped below max, got keep=%d max=%d", buf.keep, buf.max)
	}
}

func TestBufferConcurrentRecord(t *testing.T) {
	buf := NewBufferSize(100, 50)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				buf.Record(Event{Operation: "concurrent", Time: time.Now()})
			}
		}()
	}
	wg.Wait()

	// 400 records through a max-100 buffer must leave between keep and max entries
	if n := buf.Len(); n > 100 || n < 50 {
		t.Errorf("Expected between 50 and 100 entries after concurrent trimming, got %d", n)
	}
}

func TestNopRecorder(t *testing.T) {
	var rec Recorder = Nop{}
	rec.Record(Event{Operation: "ignored"})

	if rec.Len() != 0 {
		t.Errorf("Expected Nop to discard events, got %d", rec.Len())
	}
	if rec.Events() != nil {
		t.Error("Expected Nop.Events to return nil")
	}
}

func TestLoggingRecorderDelegates(t *testing.T) {
	inner := NewBuffer()
	rec := NewLoggingRecorder(inner, nil)

	rec.Record(Event{Operation: "safeArrayAccess", Kind: "scalar"})

	if rec.Len() != 1 {
		t.Errorf("Expected delegated storage, got %d entries", rec.Len())
	}
	if inner.Len() != 1 {
		t.Errorf("Expected inner buffer to hold the event, got %d", inner.Len())
	}
}

func TestLoggingRecorderNilInner(t *testing.T) {
	rec := NewLoggingRecorder(nil, nil)
	rec.Record(Event{Operation: "op"})

	if rec.Len() != 1 {
		t.Errorf("Expected fallback buffer to hold the event, got %d", rec.Len())
	}
}

func BenchmarkBufferRecord(b *testing.B) {
	buf := NewBuffer()
	ev := Event{Operation: "bench", Kind: "scalar", Received: "int"}

	for b.Loop() {
		buf.Record(ev)
	}
}
