package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/diwise/security-dashboard/internal/pkg/application/dashboard"
	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/logging"
	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/tracing"
	"github.com/diwise/security-dashboard/internal/pkg/presentation/httpstatus"
	"github.com/diwise/security-dashboard/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("security-dashboard/api")

func RegisterHandlers(log zerolog.Logger, router *chi.Mux, app dashboard.Service, stream, metrics http.Handler) *chi.Mux {

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	if metrics != nil {
		router.Handle("/metrics", metrics)
	}

	router.Route("/api/v0", func(r chi.Router) {
		r.Get("/dashboard", getDashboardHandler(log, app))

		r.Route("/events", func(r chi.Router) {
			r.Get("/", getEventsHandler(log, app))
			r.Get("/{eventID}", getEventHandler(log, app))
			r.Post("/{eventID}/report", reportEventHandler(log, app))
		})

		r.Get("/alerts", getAlertsHandler(log, app))
		r.Patch("/alerts/{alertID}", patchAlertHandler(log, app))

		r.Get("/status", getStatusHandler(log, app))
		r.Get("/cameras", getCamerasHandler(log, app))
		r.Get("/sessions", getSessionsHandler(log, app))

		r.Put("/selection/event/{eventID}", selectEventHandler(log, app))
		r.Put("/selection/session/{sessionID}", selectSessionHandler(log, app))
		r.Put("/mode/{mode}", setModeHandler(log, app))
		r.Put("/view/{view}", setViewHandler(log, app))

		r.Route("/counter", func(r chi.Router) {
			r.Get("/", getCounterHandler(log, app))
			r.Post("/start", startCountingHandler(log, app))
			r.Post("/detections", recordDetectionHandler(log, app))
			r.Post("/stop", stopCountingHandler(log, app))
		})

		if stream != nil {
			r.Handle("/stream", stream)
		}
	})

	return router
}

func getDashboardHandler(log zerolog.Logger, app dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		_, span := tracer.Start(r.Context(), "get-dashboard")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		err = writeJSON(w, http.StatusOK, app.Snapshot())
		if err != nil {
			log.Error().Err(err).Msg("unable to write dashboard")
		}
	}
}

func getEventsHandler(log zerolog.Logger, app dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		_, span := tracer.Start(r.Context(), "get-events")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		events := app.Snapshot().Events

		if r.URL.Query().Get("anomalies") == "true" {
			filtered := events[:0]
			for _, e := range events {
				if e.IsAnomaly {
					filtered = append(filtered, e)
				}
			}
			events = filtered
		}

		err = writeJSON(w, http.StatusOK, events)
		if err != nil {
			log.Error().Err(err).Msg("unable to write events")
		}
	}
}

func getEventHandler(log zerolog.Logger, app dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		_, span := tracer.Start(r.Context(), "get-event")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		eventID := chi.URLParam(r, "eventID")
		requestLogger := log.With().Str("event_id", eventID).Logger()

		event, ok := app.Snapshot().Event(eventID)
		if !ok {
			err = dashboard.ErrEventNotFound
			requestLogger.Debug().Msg("event not found")
			w.WriteHeader(http.StatusNotFound)
			return
		}

		err = writeJSON(w, http.StatusOK, event)
		if err != nil {
			requestLogger.Error().Err(err).Msg("unable to write event")
		}
	}
}

func getAlertsHandler(log zerolog.Logger, app dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		_, span := tracer.Start(r.Context(), "get-alerts")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		err = writeJSON(w, http.StatusOK, app.Snapshot().Alerts)
		if err != nil {
			log.Error().Err(err).Msg("unable to write alerts")
		}
	}
}

func patchAlertHandler(log zerolog.Logger, app dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "acknowledge-alert")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := addTraceIDToLogger(ctx, span, log)

		alertID := chi.URLParam(r, "alertID")

		_, err = app.AcknowledgeAlert(ctx, alertID)
		if err != nil {
			requestLogger.Debug().Err(err).Msgf("unable to acknowledge alert %s", alertID)
			w.WriteHeader(httpstatus.FromError(err))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func getStatusHandler(log zerolog.Logger, app dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		_, span := tracer.Start(r.Context(), "get-status")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		err = writeJSON(w, http.StatusOK, app.Snapshot().Status)
		if err != nil {
			log.Error().Err(err).Msg("unable to write status")
		}
	}
}

func getCamerasHandler(log zerolog.Logger, app dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		_, span := tracer.Start(r.Context(), "get-cameras")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		err = writeJSON(w, http.StatusOK, app.Snapshot().Cameras)
		if err != nil {
			log.Error().Err(err).Msg("unable to write cameras")
		}
	}
}

func getSessionsHandler(log zerolog.Logger, app dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		_, span := tracer.Start(r.Context(), "get-sessions")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		err = writeJSON(w, http.StatusOK, app.Snapshot().Sessions)
		if err != nil {
			log.Error().Err(err).Msg("unable to write sessions")
		}
	}
}

func selectEventHandler(log zerolog.Logger, app dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "select-event")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := addTraceIDToLogger(ctx, span, log)

		event, err := app.SelectEvent(ctx, chi.URLParam(r, "eventID"))
		if err != nil {
			requestLogger.Debug().Err(err).Msg("unable to select event")
			w.WriteHeader(httpstatus.FromError(err))
			return
		}

		err = writeJSON(w, http.StatusOK, event)
	}
}

func selectSessionHandler(log zerolog.Logger, app dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "select-session")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := addTraceIDToLogger(ctx, span, log)

		session, err := app.SelectSession(ctx, chi.URLParam(r, "sessionID"))
		if err != nil {
			requestLogger.Debug().Err(err).Msg("unable to select session")
			w.WriteHeader(httpstatus.FromError(err))
			return
		}

		err = writeJSON(w, http.StatusOK, session)
	}
}

func setModeHandler(log zerolog.Logger, app dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "set-mode")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := addTraceIDToLogger(ctx, span, log)

		mode, err := types.ParseMode(chi.URLParam(r, "mode"))
		if err != nil {
			requestLogger.Debug().Err(err).Msg("bad mode")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		app.SetMode(ctx, mode)

		w.WriteHeader(http.StatusNoContent)
	}
}

func setViewHandler(log zerolog.Logger, app dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "set-view")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := addTraceIDToLogger(ctx, span, log)

		view, err := types.ParseSecurityView(chi.URLParam(r, "view"))
		if err != nil {
			requestLogger.Debug().Err(err).Msg("bad view")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		app.SetView(ctx, view)

		w.WriteHeader(http.StatusNoContent)
	}
}

func getCounterHandler(log zerolog.Logger, app dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		_, span := tracer.Start(r.Context(), "get-counter")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		s := app.Snapshot()

		err = writeJSON(w, http.StatusOK, struct {
			Counter       any `json:"counter"`
			StopCountdown any `json:"stopCountdown"`
		}{s.Counter, s.StopCountdown})
		if err != nil {
			log.Error().Err(err).Msg("unable to write counter")
		}
	}
}

func startCountingHandler(log zerolog.Logger, app dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "start-counting")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, _ = addTraceIDToLogger(ctx, span, log)

		err = writeJSON(w, http.StatusOK, app.StartCounting(ctx))
	}
}

func recordDetectionHandler(log zerolog.Logger, app dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "record-detection")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := addTraceIDToLogger(ctx, span, log)

		status, err := app.RecordDetection(ctx)
		if err != nil {
			requestLogger.Debug().Err(err).Msg("unable to record detection")
			w.WriteHeader(httpstatus.FromError(err))
			return
		}

		err = writeJSON(w, http.StatusOK, status)
	}
}

func stopCountingHandler(log zerolog.Logger, app dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "stop-counting")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := addTraceIDToLogger(ctx, span, log)

		status, err := app.RequestStopCounting(ctx)
		if err != nil {
			requestLogger.Debug().Err(err).Msg("unable to stop counting")
			w.WriteHeader(httpstatus.FromError(err))
			return
		}

		err = writeJSON(w, http.StatusAccepted, status)
	}
}

func reportEventHandler(log zerolog.Logger, app dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "report-event")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		ctx, requestLogger := addTraceIDToLogger(ctx, span, log)

		eventID := chi.URLParam(r, "eventID")

		status, err := app.RequestReport(ctx, eventID)
		if err != nil {
			requestLogger.Debug().Err(err).Msgf("unable to report event %s", eventID)
			w.WriteHeader(httpstatus.FromError(err))
			return
		}

		err = writeJSON(w, http.StatusAccepted, status)
	}
}

func addTraceIDToLogger(ctx context.Context, span trace.Span, log zerolog.Logger) (context.Context, zerolog.Logger) {
	if traceID := span.SpanContext().TraceID(); traceID.IsValid() {
		log = log.With().Str("traceID", traceID.String()).Logger()
	}
	return logging.NewContextWithLogger(ctx, log), log
}


func writeJSON(w http.ResponseWriter, status int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return err
	}

	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(b)

	return err
}
