package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/sirupsen/logrus"

	"autoblog/app/internal/db"
	"autoblog/app/internal/pipeline"
	"autoblog/app/internal/telegram"
)

const exclusionLimit = 100

type cronInput struct {
	Authorization string `header:"Authorization"`
}

type cronArticle struct {
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	DocumentID string `json:"documentId"`
	Pillar     string `json:"pillar"`
	HasCover   bool   `json:"hasCover"`
}

type cronResponse struct {
	Status int
	Body   struct {
		Success   bool         `json:"success"`
		Article   *cronArticle `json:"article,omitempty"`
		Error     string       `json:"error,omitempty"`
		Timestamp string       `json:"timestamp"`
	}
}

type webhookInput struct {
	SecretToken string `header:"X-Telegram-Bot-Api-Secret-Token"`
	RawBody     []byte
}

type webhookResponse struct {
	Status int
	Body   struct {
		OK bool `json:"ok"`
	}
}

type healthResponse struct {
	Status int
	Body   struct {
		Status   string `json:"status"`
		Database string `json:"database"`
		CMS      string `json:"cms"`
		Pipeline string `json:"pipeline"`
	}
}

func (s *Server) registerCronRoute() {
	customize := func(op *huma.Operation) {
		op.Summary = "Trigger the daily post"
	}
	huma.Get(s.api, "/api/cron/daily-post", s.cronHandler, customize)
	huma.Post(s.api, "/api/cron/daily-post", s.cronHandler, func(op *huma.Operation) {
		op.Summary = "Trigger the daily post"
		op.OperationID = "post-cron-daily-post"
	})
}

func (s *Server) registerWebhookRoute() {
	huma.Post(s.api, "/api/telegram/webhook", s.webhookHandler, func(op *huma.Operation) {
		op.Summary = "Telegram webhook"
	})
}

func (s *Server) registerHealthRoute() {
	huma.Get(s.api, "/healthz", s.healthHandler, func(op *huma.Operation) {
		op.Summary = "Health check"
	})
}

// cronHandler runs the scheduled daily post. Authorization is checked before
// any topic selection or generation happens.
func (s *Server) cronHandler(ctx context.Context, input *cronInput) (*cronResponse, error) {
	resp := &cronResponse{}

	if !s.cronAuthorized(input.Authorization) {
		resp.Status = stdhttp.StatusUnauthorized
		resp.Body.Error = "unauthorized"
		resp.Body.Timestamp = timestamp()
		return resp, nil
	}

	var excluded []string
	if s.history != nil {
		keys, err := s.history.RecentKeys(ctx, exclusionWindow, exclusionLimit)
		if err != nil {
			// Selection still works without the exclusion list, it just
			// risks repeating a recent topic.
			s.recordError(ctx, err, "loading recent topic keys", nil)
		} else {
			excluded = keys
		}
	}

	topic := s.selector.Weighted(excluded)

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"topic":  topic.Text,
			"pillar": topic.Pillar,
		}).Info("starting scheduled post")
	}

	result := s.runner.Run(ctx, pipeline.Input{
		Topic:         topic.Text,
		Pillar:        topic.Pillar,
		Template:      topic.Template,
		Keywords:      topic.Keywords,
		GenerateImage: s.generateImages,
		Publish:       true,
	})

	resp.Body.Timestamp = timestamp()

	if !result.Success {
		message := "pipeline run failed"
		if result.Err != nil {
			message = result.Err.Error()
		}
		s.recordError(ctx, result.Err, "scheduled post failed", logrus.Fields{"topic": topic.Text})
		resp.Status = stdhttp.StatusInternalServerError
		resp.Body.Error = message
		return resp, nil
	}

	resp.Status = stdhttp.StatusOK
	resp.Body.Success = true
	resp.Body.Article = &cronArticle{
		Title:      result.Article.Title,
		Slug:       result.Slug,
		DocumentID: result.DocumentID,
		Pillar:     result.Article.Pillar,
		HasCover:   result.HasCover,
	}

	return resp, nil
}

// webhookHandler dispatches Telegram updates. It answers 200 {ok:true} for
// every processable request so Telegram never re-delivers updates.
func (s *Server) webhookHandler(ctx context.Context, input *webhookInput) (*webhookResponse, error) {
	resp := &webhookResponse{}

	if s.webhookSecret != "" && subtle.ConstantTimeCompare([]byte(input.SecretToken), []byte(s.webhookSecret)) != 1 {
		resp.Status = stdhttp.StatusUnauthorized
		return resp, nil
	}

	resp.Status = stdhttp.StatusOK
	resp.Body.OK = true

	if s.telegram == nil {
		return resp, nil
	}

	var update telegram.Update
	if err := json.Unmarshal(input.RawBody, &update); err != nil {
		s.recordError(ctx, err, "decoding telegram update", nil)
		return resp, nil
	}

	s.telegram.HandleUpdate(ctx, &update)

	return resp, nil
}

func (s *Server) healthHandler(ctx context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{}
	resp.Body.Status = "ok"
	resp.Body.Database = "ok"
	resp.Body.CMS = "ok"
	resp.Body.Pipeline = "ready"

	if err := db.Ping(s.db); err != nil {
		s.recordError(ctx, err, "pinging database", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	}

	if s.cms == nil {
		resp.Body.CMS = "unconfigured"
	} else if err := s.cms.Health(ctx); err != nil {
		s.recordError(ctx, err, "checking cms health", nil)
		resp.Body.Status = "degraded"
		resp.Body.CMS = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	}

	if resp.Status == 0 {
		resp.Status = stdhttp.StatusOK
	}

	return resp, nil
}

func (s *Server) cronAuthorized(authorization string) bool {
	if s.cronSecret == "" {
		return false
	}

	token := strings.TrimPrefix(authorization, "Bearer ")
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.cronSecret)) == 1
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
