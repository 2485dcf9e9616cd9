package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/example/telegram-order-notify/internal/common"
	"github.com/example/telegram-order-notify/internal/notifier"
	"github.com/example/telegram-order-notify/internal/order"
	"github.com/example/telegram-order-notify/internal/telegram"
)

var (
	requestCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "api_requests_total",
		Help: "Total API requests handled",
	}, []string{"route", "status"})
)

// Server exposes the order-event and admin-test endpoints consumed by
// the commerce platform, the scheduler, and the settings UI.
type Server struct {
	Notifier *notifier.Service
	Logger   zerolog.Logger
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/events/order-created", s.orderCreated)
	r.Post("/v1/events/order-status", s.statusChanged)
	r.Post("/v1/events/delayed-send", s.delayedSend)
	r.Post("/v1/test/message", s.testMessage)
	r.Post("/v1/test/rich", s.testRich)
	r.Post("/v1/test/all-bots", s.testAllBots)
	return r
}

type orderCreatedRequest struct {
	OrderID int `json:"order_id"`
}

type statusChangedRequest struct {
	OrderID   int          `json:"order_id"`
	OldStatus string       `json:"old_status"`
	NewStatus string       `json:"new_status"`
	Order     *order.Order `json:"order,omitempty"`
}

func (s *Server) orderCreated(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("api").Start(r.Context(), "order-created")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", uuid.NewString()))

	var req orderCreatedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondErr(ctx, w, "order-created", http.StatusBadRequest, err)
		return
	}
	if req.OrderID <= 0 {
		s.respondErr(ctx, w, "order-created", http.StatusBadRequest, errors.New("order_id required"))
		return
	}

	if err := s.Notifier.HandleOrderCreated(ctx, req.OrderID); err != nil {
		s.respondErr(ctx, w, "order-created", http.StatusInternalServerError, err)
		return
	}
	requestCounter.WithLabelValues("order-created", "accepted").Inc()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) statusChanged(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("api").Start(r.Context(), "order-status")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", uuid.NewString()))

	var req statusChangedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondErr(ctx, w, "order-status", http.StatusBadRequest, err)
		return
	}
	if req.OrderID <= 0 {
		s.respondErr(ctx, w, "order-status", http.StatusBadRequest, errors.New("order_id required"))
		return
	}
	if req.NewStatus == "" {
		s.respondErr(ctx, w, "order-status", http.StatusBadRequest, errors.New("new_status required"))
		return
	}

	if err := s.Notifier.HandleStatusChanged(ctx, req.OrderID, req.OldStatus, req.NewStatus, req.Order); err != nil {
		s.respondErr(ctx, w, "order-status", http.StatusInternalServerError, err)
		return
	}
	requestCounter.WithLabelValues("order-status", "accepted").Inc()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) delayedSend(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("api").Start(r.Context(), "delayed-send")
	defer span.End()

	var req orderCreatedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondErr(ctx, w, "delayed-send", http.StatusBadRequest, err)
		return
	}
	if req.OrderID <= 0 {
		s.respondErr(ctx, w, "delayed-send", http.StatusBadRequest, errors.New("order_id required"))
		return
	}

	if err := s.Notifier.SendOrderNow(ctx, req.OrderID); err != nil {
		s.respondErr(ctx, w, "delayed-send", http.StatusInternalServerError, err)
		return
	}
	requestCounter.WithLabelValues("delayed-send", "accepted").Inc()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) testMessage(w http.ResponseWriter, r *http.Request) {
	s.respondOutcome(r.Context(), w, "test-message", s.Notifier.SendTest(r.Context()))
}

func (s *Server) testRich(w http.ResponseWriter, r *http.Request) {
	s.respondOutcome(r.Context(), w, "test-rich", s.Notifier.SendTestRich(r.Context()))
}

func (s *Server) testAllBots(w http.ResponseWriter, r *http.Request) {
	s.respondOutcome(r.Context(), w, "test-all-bots", s.Notifier.SendTestAllBots(r.Context()))
}

// respondOutcome surfaces the batch result as the success/failure
// banner payload for the admin UI. A failed send is still a handled
// request, so the status stays 200.
func (s *Server) respondOutcome(ctx context.Context, w http.ResponseWriter, route string, outcome telegram.Outcome) {
	status := "ok"
	if !outcome.OK {
		status = "failed"
	}
	requestCounter.WithLabelValues(route, status).Inc()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(outcome); err != nil {
		logger := common.WithContext(ctx, s.Logger)
		logger.Error().Err(err).Str("route", route).Msg("encode outcome")
	}
}

func (s *Server) respondErr(ctx context.Context, w http.ResponseWriter, route string, status int, err error) {
	logger := common.WithContext(ctx, s.Logger)
	logger.Error().Err(err).Int("status", status).Str("route", route).Msg("api handler error")
	requestCounter.WithLabelValues(route, "error").Inc()
	http.Error(w, err.Error(), status)
}
