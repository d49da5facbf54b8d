package http

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"autoblog/app/internal/pipeline"
	"autoblog/app/internal/telegram"
	"autoblog/app/internal/topics"
)

// exclusionWindow bounds how far back the scheduled run looks when avoiding
// recently published topics.
const exclusionWindow = 30 * 24 * time.Hour

// PipelineRunner executes one content pipeline run.
type PipelineRunner interface {
	Run(ctx context.Context, input pipeline.Input) *pipeline.Result
}

// TopicSelector picks the next topic for a scheduled run.
type TopicSelector interface {
	Weighted(excluded []string) topics.Topic
}

// TopicHistory reports recently published topic keys.
type TopicHistory interface {
	RecentKeys(ctx context.Context, window time.Duration, limit int) ([]string, error)
}

// UpdateHandler processes Telegram webhook updates.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update *telegram.Update)
}

// CMSHealth reports CMS reachability.
type CMSHealth interface {
	Health(ctx context.Context) error
}

// Options configures the HTTP server wiring.
type Options struct {
	Runner                PipelineRunner
	Selector              TopicSelector
	History               TopicHistory
	Telegram              UpdateHandler
	CMS                   CMSHealth
	Database              *gorm.DB
	CronSecret            string
	TelegramWebhookSecret string
	GenerateImages        bool
	Logger                *logrus.Logger
	SentryHub             *sentry.Hub
}

// Server wires the inbound trigger endpoints via Huma.
type Server struct {
	api            huma.API
	mux            *stdhttp.ServeMux
	runner         PipelineRunner
	selector       TopicSelector
	history        TopicHistory
	telegram       UpdateHandler
	cms            CMSHealth
	db             *gorm.DB
	cronSecret     string
	webhookSecret  string
	generateImages bool
	logger         *logrus.Logger
	sentry         *sentry.Hub
}

// NewServer constructs the HTTP server.
func NewServer(opts Options) (*Server, error) {
	if opts.Runner == nil {
		return nil, eris.New("pipeline runner is required")
	}
	if opts.Selector == nil {
		return nil, eris.New("topic selector is required")
	}
	if opts.Database == nil {
		return nil, eris.New("database is required")
	}

	mux := stdhttp.NewServeMux()
	config := huma.DefaultConfig("Autoblog", "1.0.0")

	api := humago.New(mux, config)

	srv := &Server{
		api:            api,
		mux:            mux,
		runner:         opts.Runner,
		selector:       opts.Selector,
		history:        opts.History,
		telegram:       opts.Telegram,
		cms:            opts.CMS,
		db:             opts.Database,
		cronSecret:     opts.CronSecret,
		webhookSecret:  opts.TelegramWebhookSecret,
		generateImages: opts.GenerateImages,
		logger:         opts.Logger,
		sentry:         opts.SentryHub,
	}

	srv.registerMiddlewares()
	srv.registerRoutes()

	return srv, nil
}

// Handler exposes the underlying HTTP handler for wiring into the application.
func (s *Server) Handler() stdhttp.Handler {
	return s.mux
}

// API exposes the underlying Huma API instance.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) registerMiddlewares() {
	s.api.UseMiddleware(
		s.sentryMiddleware(),
		s.recoveryMiddleware(),
		s.requestIDMiddleware(),
		s.loggingMiddleware(),
	)
}

func (s *Server) registerRoutes() {
	s.registerCronRoute()
	s.registerWebhookRoute()
	s.registerHealthRoute()
}

func (s *Server) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	s.mux.ServeHTTP(w, r)
}
