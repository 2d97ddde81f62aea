package server

import (
	"time"

	"skillsight/internal/config"
	"skillsight/internal/diag"
	skillsightErrors "skillsight/internal/errors"
	"skillsight/internal/history"
	"skillsight/internal/match"
	"skillsight/internal/safedata"
	"skillsight/internal/types"
	"skillsight/internal/validation"
)

// Request bodies for the API endpoints.
type ValidateRequest struct {
	FormType string         `json:"formType"`
	Data     map[string]any `json:"data"`
}

type TrendRequest struct {
	Series any    `json:"series,omitempty"`
	Method string `json:"method,omitempty"`
	Period *int   `json:"period,omitempty"`

	// Alternative to Series: read a stored score series instead.
	UserID string `json:"userId,omitempty"`
	Kind   string `json:"kind,omitempty"`
}

type AnalyzeRequest struct {
	ResumeText string `json:"resumeText"`
	TargetRole string `json:"targetRole"`
}

type RecommendRequest struct {
	Skills any         `json:"skills"`
	Jobs   []types.Job `json:"jobs"`
	Limit  int         `json:"limit,omitempty"`
}

type QuestionsRequest struct {
	Role          string   `json:"role"`
	InterviewType string   `json:"interviewType"`
	Difficulty    string   `json:"difficulty"`
	Topics        []string `json:"topics,omitempty"`
	Count         int      `json:"count,omitempty"`
}

type ScoreRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Role     string `json:"role"`
	UserID   string `json:"userId,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// Certificate management
	CertificateManager *CertificateManager

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Domain components
	Validator    *validation.Manager
	Processor    *safedata.Processor
	Matcher      *match.Engine
	History      history.Store
	Diagnostics  diag.Recorder
	RulesWatcher *validation.CatalogWatcher

	startedAt time.Time

	// Logger
	Logger *skillsightErrors.Logger
}

// ServerConfig holds configuration for creating a Server instance
// (Refactored to reduce long parameter list in NewServer)
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *skillsightErrors.Logger) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	// Shape violations from all request processing land in one shared
	// buffer so /stats can report them.
	recorder := diag.NewLoggingRecorder(diag.NewBuffer(), logger)
	processor := safedata.NewProcessor(recorder)
	catalog := validation.NewCatalog(validation.DefaultForms())

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Validator:      validation.NewManager(catalog, recorder, logger),
		Processor:      processor,
		Matcher:        match.NewEngine(processor),
		Diagnostics:    recorder,
		startedAt:      time.Now(),
		Logger:         logger,
	}
}
