package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"skillsight/internal/types"
)

// Score series kinds.
const (
	KindAssessment = "assessment"
	KindInterview  = "interview"
)

// Session represents one mock interview run, answers and scores included.
type Session struct {
	ID            string                    `json:"id"`
	UserID        string                    `json:"userId"`
	Role          string                    `json:"role"`
	InterviewType string                    `json:"interviewType"`
	Difficulty    string                    `json:"difficulty"`
	Questions     []types.InterviewQuestion `json:"questions"`
	Answers       []string                  `json:"answers"`
	Scores        []float64                 `json:"scores"`
	StartedAt     time.Time                 `json:"startedAt"`
	CompletedAt   *time.Time                `json:"completedAt,omitempty"`
}

// NewSession creates a session with a fresh ID and start timestamp.
func NewSession(userID, role, interviewType, difficulty string) *Session {
	return &Session{
		ID:            uuid.NewString(),
		UserID:        userID,
		Role:          role,
		InterviewType: interviewType,
		Difficulty:    difficulty,
		Answers:       []string{},
		Scores:        []float64{},
		StartedAt:     time.Now().UTC(),
	}
}

// Complete stamps the completion time.
func (s *Session) Complete() {
	now := time.Now().UTC()
	s.CompletedAt = &now
}

// AverageScore is the mean of the session's answer scores, 0 when empty.
func (s *Session) AverageScore() float64 {
	if len(s.Scores) == 0 {
		return 0
	}
	var sum float64
	for _, score := range s.Scores {
		sum += score
	}
	return sum / float64(len(s.Scores))
}

// Store persists per-user score series and interview sessions. Scores come
// back in chronological order, oldest first, ready for trend calculation.
type Store interface {
	AppendScore(ctx context.Context, userID, kind string, score float64) error
	Scores(ctx context.Context, userID, kind string, limit int) ([]float64, error)
	SaveSession(ctx context.Context, session *Session) error
	Session(ctx context.Context, id string) (*Session, error)
	Close() error
}
