// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package httpd

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bash/toby/lib/auth"
	"github.com/bash/toby/lib/intake"
	"github.com/bash/toby/lib/telegram"
)

// maxUpdateSize bounds Telegram webhook bodies.
const maxUpdateSize = 1 << 20

// Replier answers bot commands. *telegram.Client implements it.
type Replier interface {
	SendMessage(ctx context.Context, params telegram.SendMessageParams) (telegram.Message, error)
}

// TelegramConfig enables the bot webhook route.
type TelegramConfig struct {
	// Secret is the last path segment Telegram posts to. Requests with
	// any other segment get 404.
	Secret string

	// RuntimeDir holds the registered chat ID. Commands from other
	// chats, or any chat before setup, are ignored.
	RuntimeDir string

	// Replier may be nil, in which case commands are silent.
	Replier Replier
}

// Server routes requests to a submitter.
type Server struct {
	Submitter *intake.Submitter

	// Telegram is nil when the bot webhook is disabled.
	Telegram *TelegramConfig

	Logger *slog.Logger
}

// Router returns the handler for every route.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger()))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/v1/jobs/{project}", s.handleSubmitJob)
	if s.Telegram != nil {
		r.Post("/hooks/telegram/{secret}", s.handleTelegramUpdate)
	}
	return r
}

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")
	tokenName, secret, ok := auth.ParseHeader(r.Header.Get("Authorization"))
	if !ok {
		writeErr(w, http.StatusForbidden, auth.ErrForbidden)
		return
	}

	submitted, err := s.Submitter.SubmitWebhook(r.Context(), project, tokenName, secret)
	switch {
	case errors.Is(err, auth.ErrForbidden):
		writeErr(w, http.StatusForbidden, err)
		return
	case err != nil:
		s.logger().Error("submitting webhook job failed",
			"project", project, "request_id", middleware.GetReqID(r.Context()), "error", err)
		writeErr(w, http.StatusInternalServerError, errors.New("job could not be queued"))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"id": submitted.ID})
}

func (s *Server) handleTelegramUpdate(w http.ResponseWriter, r *http.Request) {
	secret := chi.URLParam(r, "secret")
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.Telegram.Secret)) != 1 {
		http.NotFound(w, r)
		return
	}

	var update telegram.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateSize)).Decode(&update); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("decoding update: %w", err))
		return
	}

	// Telegram redelivers anything that does not get a 2xx, so every
	// well-formed update is acknowledged, acted on or not.
	w.WriteHeader(http.StatusOK)

	message := update.Message
	if message == nil {
		return
	}
	command, arguments, ok := message.BotCommand()
	if !ok || command != "deploy" {
		return
	}

	logger := s.logger().With("update_id", update.UpdateID, "chat_id", message.Chat.ID)
	chatID, registered, err := telegram.ReadChatID(s.Telegram.RuntimeDir)
	if err != nil {
		logger.Error("reading registered chat failed", "error", err)
		return
	}
	if !registered || chatID != message.Chat.ID {
		logger.Warn("ignoring command from unregistered chat")
		return
	}

	if arguments == "" {
		s.reply(r.Context(), message, "Usage: /deploy <project>")
		return
	}
	submitted, err := s.Submitter.SubmitTelegram(r.Context(), arguments, message.SenderName())
	switch {
	case errors.Is(err, intake.ErrUnknownProject):
		s.reply(r.Context(), message, fmt.Sprintf("Unknown project %q.", arguments))
	case errors.Is(err, intake.ErrInvalidTrigger):
		logger.Warn("rejecting command without a sender name", "project", arguments)
		s.reply(r.Context(), message, "Commands must come from a user account.")
	case err != nil:
		logger.Error("submitting telegram job failed", "project", arguments, "error", err)
		s.reply(r.Context(), message, "The job could not be queued.")
	default:
		s.reply(r.Context(), message, fmt.Sprintf("Queued %s #%d.", submitted.Project, submitted.ID))
	}
}

func (s *Server) reply(ctx context.Context, to *telegram.Message, text string) {
	if s.Telegram.Replier == nil {
		return
	}
	_, err := s.Telegram.Replier.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:           to.Chat.ID,
		Text:             text,
		ReplyToMessageID: to.MessageID,
	})
	if err != nil {
		s.logger().Warn("telegram reply failed", "chat_id", to.Chat.ID, "error", err)
	}
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// requestLogger logs one line per request once the response is
// written.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(wrapped, r)
			logger.Info("http request",
				"method", r.Method,
				// Route pattern rather than path: the Telegram route
				// carries a secret.
				"route", chi.RouteContext(r.Context()).RoutePattern(),
				"status", wrapped.Status(),
				"bytes", wrapped.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
