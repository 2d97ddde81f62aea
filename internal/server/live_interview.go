package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"

	"skillsight/internal/ai"
	"skillsight/internal/history"
	"skillsight/internal/observability"
	"skillsight/internal/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// liveMessage is the envelope for both directions of a live interview
// session. Server messages carry structured payloads in Data; client
// messages carry the answer text as a JSON string.
type liveMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type liveParams struct {
	Role          string
	InterviewType string
	Difficulty    string
	Count         int
	UserID        string
}

type liveQuestionPayload struct {
	Number   int                     `json:"number"`
	Total    int                     `json:"total"`
	Question types.InterviewQuestion `json:"question"`
}

type liveSummaryPayload struct {
	SessionID    string  `json:"sessionId"`
	Questions    int     `json:"questions"`
	Answered     int     `json:"answered"`
	AverageScore float64 `json:"averageScore"`
}

// createLiveInterviewHandler upgrades the connection to a websocket and runs
// a question/answer/score loop against the AI providers
func (s *Server) createLiveInterviewHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		params := parseLiveParams(r)
		if params.Role == "" {
			writeErrorResponse(w, "Missing role", "role query parameter is required", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.Logger.LogError(err, "Failed to upgrade to websocket",
				"client_ip", r.RemoteAddr)
			return
		}
		defer func() { _ = conn.Close() }()

		s.Logger.Info("Live interview websocket connected",
			"role", params.Role,
			"interview_type", params.InterviewType,
			"difficulty", params.Difficulty,
			"client_ip", r.RemoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		incoming := make(chan liveMessage)
		var wg sync.WaitGroup

		// Read from websocket -> feed the interview loop
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer cancel()
			defer close(incoming)
			for {
				_, raw, err := conn.ReadMessage()
				if err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
						s.Logger.Debug("Websocket read error", "error", err)
					}
					return
				}

				var msg liveMessage
				if err := json.Unmarshal(raw, &msg); err != nil {
					s.Logger.Debug("Invalid live interview message", "error", err)
					continue
				}

				select {
				case incoming <- msg:
				case <-ctx.Done():
					return
				}
			}
		}()

		s.runLiveInterview(ctx, conn, incoming, params, om)

		cancel()
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "interview complete"))
		_ = conn.Close()
		wg.Wait()

		s.Logger.Info("Live interview websocket disconnected", "role", params.Role)
	}
}

// runLiveInterview drives the question/answer/score state machine until the
// questions run out, the client sends "done", or the connection drops.
func (s *Server) runLiveInterview(ctx context.Context, conn *websocket.Conn, incoming <-chan liveMessage, params liveParams, om *observability.ObservabilityManager) {
	tracer := om.Tracer("skillsight.api")
	ctx, span := tracer.Start(ctx, "api.interview.live")
	defer span.End()

	span.SetAttributes(
		attribute.String("request.role", params.Role),
		attribute.String("request.interview_type", params.InterviewType),
		attribute.String("request.difficulty", params.Difficulty),
		attribute.Int("request.count", params.Count),
		attribute.String("operation", "interview"),
	)

	interviewConfig := s.AppConfig.GetInterviewConfig()
	interviewService, err := ai.NewService(&interviewConfig, "interview", s.Logger)
	if err != nil {
		span.RecordError(err)
		s.sendLiveError(conn, "interview service unavailable")
		return
	}

	scoreConfig := s.AppConfig.GetScoreConfig()
	scoreService, err := ai.NewService(&scoreConfig, "score", s.Logger)
	if err != nil {
		span.RecordError(err)
		s.sendLiveError(conn, "scoring service unavailable")
		return
	}

	metrics := om.GetMetrics()

	input := types.GenerateQuestionsInput{
		Role:          params.Role,
		InterviewType: params.InterviewType,
		Difficulty:    params.Difficulty,
		Count:         params.Count,
	}

	var generated types.GenerateQuestionsOutput
	err = metrics.TrackAIOperationWithTokens(ctx, "interview", func(ctx context.Context) *observability.AIOperationResult {
		output, tokenUsage, aiErr := interviewService.Provider.GenerateQuestions(ctx, input)
		generated = output
		return &observability.AIOperationResult{
			Error:      aiErr,
			TokenUsage: (*observability.TokenUsage)(tokenUsage),
		}
	}, om)
	if err != nil {
		span.RecordError(err)
		metrics.RecordBusinessMetric(ctx, "interview_session", false, om)
		s.sendLiveError(conn, "failed to generate interview questions")
		return
	}
	if len(generated.Questions) == 0 {
		s.sendLiveError(conn, "no questions generated for this role")
		return
	}

	session := history.NewSession(params.UserID, params.Role, params.InterviewType, params.Difficulty)
	session.Questions = generated.Questions

	if err := s.sendLiveMessage(conn, "connected", map[string]any{
		"sessionId": session.ID,
		"questions": len(generated.Questions),
	}); err != nil {
		return
	}

	answered := 0

questionLoop:
	for i, question := range generated.Questions {
		payload := liveQuestionPayload{
			Number:   i + 1,
			Total:    len(generated.Questions),
			Question: question,
		}
		if err := s.sendLiveMessage(conn, "question", payload); err != nil {
			break
		}

		waiting := true
		for waiting {
			select {
			case <-ctx.Done():
				break questionLoop
			case msg, ok := <-incoming:
				if !ok {
					break questionLoop
				}
				switch msg.Type {
				case "answer":
					var answer string
					if err := json.Unmarshal(msg.Data, &answer); err != nil || strings.TrimSpace(answer) == "" {
						s.sendLiveError(conn, "answer must be a non-empty string")
						continue
					}
					result, scoreErr := s.scoreLiveAnswer(ctx, scoreService, question, answer, params.Role, om)
					if scoreErr != nil {
						s.sendLiveError(conn, "failed to score answer")
					} else {
						session.Answers = append(session.Answers, answer)
						session.Scores = append(session.Scores, float64(result.Score))
						answered++
						s.appendLiveScore(ctx, params.UserID, result.Score)
						if err := s.sendLiveMessage(conn, "score", result); err != nil {
							break questionLoop
						}
					}
					waiting = false
				case "done":
					break questionLoop
				default:
					s.sendLiveError(conn, fmt.Sprintf("unknown message type: %s", msg.Type))
				}
			}
		}
	}

	session.Complete()

	summary := liveSummaryPayload{
		SessionID:    session.ID,
		Questions:    len(generated.Questions),
		Answered:     answered,
		AverageScore: session.AverageScore(),
	}
	_ = s.sendLiveMessage(conn, "summary", summary)

	s.persistLiveSession(session)

	metrics.RecordBusinessMetric(ctx, "interview_session", true, om,
		attribute.Int("questions_count", len(generated.Questions)),
		attribute.Int("answered_count", answered))

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.String("session.id", session.ID),
		attribute.Int("answered_count", answered),
	)
}

// scoreLiveAnswer runs a single AI scoring call with the usual metrics
func (s *Server) scoreLiveAnswer(ctx context.Context, svc *ai.Service, question types.InterviewQuestion, answer, role string, om *observability.ObservabilityManager) (types.ScoreAnswerOutput, error) {
	metrics := om.GetMetrics()

	input := types.ScoreAnswerInput{
		Question: question.Question,
		Answer:   answer,
		Role:     role,
	}

	var result types.ScoreAnswerOutput
	err := metrics.TrackAIOperationWithTokens(ctx, "score", func(ctx context.Context) *observability.AIOperationResult {
		output, tokenUsage, aiErr := svc.Provider.ScoreAnswer(ctx, input)
		result = output
		return &observability.AIOperationResult{
			Error:      aiErr,
			TokenUsage: (*observability.TokenUsage)(tokenUsage),
		}
	}, om)
	if err != nil {
		metrics.RecordBusinessMetric(ctx, "answer_scored", false, om)
		return types.ScoreAnswerOutput{}, err
	}

	metrics.RecordBusinessMetric(ctx, "answer_scored", true, om,
		attribute.Int("score", result.Score))
	return result, nil
}

// appendLiveScore adds one answer score to the user's series, mirroring the
// /interview/score endpoint behavior
func (s *Server) appendLiveScore(ctx context.Context, userID string, score int) {
	if userID == "" || s.History == nil {
		return
	}
	if err := s.History.AppendScore(ctx, userID, history.KindInterview, float64(score)); err != nil {
		s.Logger.LogError(err, "Failed to append score to history",
			"user_id", userID)
	}
}

// persistLiveSession saves the finished session. The request context may
// already be canceled by a client disconnect, so persistence gets its own
// deadline.
func (s *Server) persistLiveSession(session *history.Session) {
	if s.History == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.History.SaveSession(ctx, session); err != nil {
		s.Logger.LogError(err, "Failed to save interview session",
			"session_id", session.ID)
		return
	}

	s.Logger.Info("Interview session saved",
		"session_id", session.ID,
		"answered", len(session.Scores),
		"average_score", session.AverageScore())
}

func parseLiveParams(r *http.Request) liveParams {
	query := r.URL.Query()

	params := liveParams{
		Role:          strings.TrimSpace(query.Get("role")),
		InterviewType: query.Get("type"),
		Difficulty:    query.Get("difficulty"),
		Count:         3,
		UserID:        query.Get("userId"),
	}

	if params.InterviewType == "" {
		params.InterviewType = "mixed"
	}
	if params.Difficulty == "" {
		params.Difficulty = "medium"
	}
	if raw := query.Get("count"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 1 && n <= 10 {
			params.Count = n
		}
	}

	return params
}

func (s *Server) sendLiveMessage(conn *websocket.Conn, msgType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		s.Logger.LogError(err, "Failed to marshal live interview payload",
			"message_type", msgType)
		return err
	}

	envelope, err := json.Marshal(liveMessage{Type: msgType, Data: data})
	if err != nil {
		s.Logger.LogError(err, "Failed to marshal live interview message",
			"message_type", msgType)
		return err
	}

	if err := conn.WriteMessage(websocket.TextMessage, envelope); err != nil {
		s.Logger.Debug("Failed to send live interview message",
			"message_type", msgType,
			"error", err)
		return err
	}
	return nil
}

func (s *Server) sendLiveError(conn *websocket.Conn, message string) {
	_ = s.sendLiveMessage(conn, "error", message)
}
