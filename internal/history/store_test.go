package history

import (
	"context"
	"math"
	"reflect"
	"sync"
	"testing"

	"skillsight/internal/errors"
)

func TestMemoryStoreScores(t *testing.T) {
	ctx := context.Background()

	t.Run("append and read chronological", func(t *testing.T) {
		store := NewMemoryStore(0)
		for _, score := range []float64{60, 70, 85} {
			if err := store.AppendScore(ctx, "u1", KindInterview, score); err != nil {
				t.Fatalf("AppendScore failed: %v", err)
			}
		}

		scores, err := store.Scores(ctx, "u1", KindInterview, 0)
		if err != nil {
			t.Fatalf("Scores failed: %v", err)
		}
		if !reflect.DeepEqual(scores, []float64{60, 70, 85}) {
			t.Errorf("Scores = %v, expected oldest first", scores)
		}
	})

	t.Run("limit keeps the most recent entries", func(t *testing.T) {
		store := NewMemoryStore(0)
		for i := 1; i <= 5; i++ {
			_ = store.AppendScore(ctx, "u1", KindAssessment, float64(i*10))
		}

		scores, _ := store.Scores(ctx, "u1", KindAssessment, 2)
		if !reflect.DeepEqual(scores, []float64{40, 50}) {
			t.Errorf("Scores = %v, expected the last two in order", scores)
		}
	})

	t.Run("series limit drops the oldest", func(t *testing.T) {
		store := NewMemoryStore(3)
		for i := 1; i <= 5; i++ {
			_ = store.AppendScore(ctx, "u1", KindInterview, float64(i))
		}

		scores, _ := store.Scores(ctx, "u1", KindInterview, 0)
		if !reflect.DeepEqual(scores, []float64{3, 4, 5}) {
			t.Errorf("Scores = %v, expected retention of the newest three", scores)
		}
	})

	t.Run("kinds and users are isolated", func(t *testing.T) {
		store := NewMemoryStore(0)
		_ = store.AppendScore(ctx, "u1", KindInterview, 10)
		_ = store.AppendScore(ctx, "u1", KindAssessment, 20)
		_ = store.AppendScore(ctx, "u2", KindInterview, 30)

		scores, _ := store.Scores(ctx, "u1", KindInterview, 0)
		if !reflect.DeepEqual(scores, []float64{10}) {
			t.Errorf("Scores = %v, expected only u1 interview scores", scores)
		}
	})

	t.Run("unknown user yields an empty series", func(t *testing.T) {
		store := NewMemoryStore(0)
		scores, err := store.Scores(ctx, "ghost", KindInterview, 0)
		if err != nil || len(scores) != 0 {
			t.Errorf("Expected empty series without error, got %v / %v", scores, err)
		}
	})
}

func TestMemoryStoreSessions(t *testing.T) {
	ctx := context.Background()

	t.Run("save and load round trip", func(t *testing.T) {
		store := NewMemoryStore(0)
		session := NewSession("u1", "Backend Engineer", "technical", "medium")
		session.Answers = append(session.Answers, "answer one")
		session.Scores = append(session.Scores, 82)

		if err := store.SaveSession(ctx, session); err != nil {
			t.Fatalf("SaveSession failed: %v", err)
		}

		loaded, err := store.Session(ctx, session.ID)
		if err != nil {
			t.Fatalf("Session failed: %v", err)
		}
		if loaded.Role != "Backend Engineer" || len(loaded.Answers) != 1 {
			t.Errorf("Loaded session mismatch: %+v", loaded)
		}
	})

	t.Run("stored session is a copy", func(t *testing.T) {
		store := NewMemoryStore(0)
		session := NewSession("u1", "SRE", "mixed", "hard")
		_ = store.SaveSession(ctx, session)

		session.Role = "mutated"
		loaded, _ := store.Session(ctx, session.ID)
		if loaded.Role != "SRE" {
			t.Error("Store must not alias the caller's session")
		}
	})

	t.Run("missing session reports a typed error", func(t *testing.T) {
		store := NewMemoryStore(0)
		_, err := store.Session(ctx, "nope")
		if err == nil {
			t.Fatal("Expected an error for a missing session")
		}
		appErr, ok := err.(*errors.AppError)
		if !ok || appErr.Code != errors.ErrCodeSessionNotFound {
			t.Errorf("Expected SESSION_NOT_FOUND, got %v", err)
		}
	})

	t.Run("session without ID is rejected", func(t *testing.T) {
		store := NewMemoryStore(0)
		if err := store.SaveSession(ctx, &Session{}); err == nil {
			t.Error("Expected an error for a session without ID")
		}
	})
}

func TestMemoryStoreConcurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				_ = store.AppendScore(ctx, "u1", KindInterview, float64(i))
				_, _ = store.Scores(ctx, "u1", KindInterview, 10)
			}
		}()
	}
	wg.Wait()

	scores, _ := store.Scores(ctx, "u1", KindInterview, 0)
	if len(scores) != 200 {
		t.Errorf("Expected 200 scores, got %d", len(scores))
	}
}

func TestSessionHelpers(t *testing.T) {
	t.Run("new sessions get distinct IDs", func(t *testing.T) {
		a := NewSession("u1", "r", "technical", "easy")
		b := NewSession("u1", "r", "technical", "easy")
		if a.ID == "" || a.ID == b.ID {
			t.Errorf("Expected distinct non-empty IDs, got %q and %q", a.ID, b.ID)
		}
	})

	t.Run("complete stamps a time", func(t *testing.T) {
		s := NewSession("u1", "r", "technical", "easy")
		if s.CompletedAt != nil {
			t.Error("New session must not be completed")
		}
		s.Complete()
		if s.CompletedAt == nil || s.CompletedAt.Before(s.StartedAt) {
			t.Errorf("Completion time %v invalid against start %v", s.CompletedAt, s.StartedAt)
		}
	})

	t.Run("average score", func(t *testing.T) {
		s := NewSession("u1", "r", "technical", "easy")
		if s.AverageScore() != 0 {
			t.Error("Empty session average must be 0")
		}
		s.Scores = []float64{80, 90, 70}
		if math.Abs(s.AverageScore()-80) > 1e-9 {
			t.Errorf("AverageScore = %v, expected 80", s.AverageScore())
		}
	})
}

func TestRedisKeyLayout(t *testing.T) {
	if got := scoresKey("u1", KindInterview); got != "skillsight:scores:u1:interview" {
		t.Errorf("scoresKey = %s", got)
	}
	if got := sessionKey("abc"); got != "skillsight:session:abc" {
		t.Errorf("sessionKey = %s", got)
	}
}
