package gui

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/diwise/security-dashboard/internal/pkg/application/dashboard"
	"github.com/diwise/security-dashboard/internal/pkg/application/timefmt"
	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/logging"
	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/mockdata"
	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/tracing"
	"github.com/diwise/security-dashboard/internal/pkg/presentation/httpstatus"
	"github.com/diwise/security-dashboard/internal/pkg/presentation/views"
	"github.com/diwise/security-dashboard/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"golang.org/x/text/language"
)

var tracer = otel.Tracer("security-dashboard/gui")

//go:embed templates/index.html
var templates embed.FS

//go:embed static
var static embed.FS

var index = template.Must(template.ParseFS(templates, "templates/index.html"))

// Locale is the default locale and time zone used when a request does not ask
// for a supported language.
type Locale struct {
	Tag      language.Tag
	Location *time.Location
}

func RegisterHandlers(log zerolog.Logger, router *chi.Mux, locale Locale, app dashboard.Service) *chi.Mux {

	assets, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	FileServer(router, "/static", http.FS(assets))

	router.Get("/", NewGuiHandler(log, locale, app))

	router.Route("/gui", func(r chi.Router) {
		r.Post("/mode/{mode}", action(log, "set-mode", func(ctx context.Context, r *http.Request) error {
			mode, err := types.ParseMode(chi.URLParam(r, "mode"))
			if err != nil {
				return err
			}
			app.SetMode(ctx, mode)
			return nil
		}))
		r.Post("/view/{view}", action(log, "set-view", func(ctx context.Context, r *http.Request) error {
			view, err := types.ParseSecurityView(chi.URLParam(r, "view"))
			if err != nil {
				return err
			}
			app.SetView(ctx, view)
			return nil
		}))
		r.Post("/events/{eventID}/select", action(log, "select-event", func(ctx context.Context, r *http.Request) error {
			_, err := app.SelectEvent(ctx, chi.URLParam(r, "eventID"))
			return err
		}))
		r.Post("/events/{eventID}/report", action(log, "report-event", func(ctx context.Context, r *http.Request) error {
			_, err := app.RequestReport(ctx, chi.URLParam(r, "eventID"))
			return err
		}))
		r.Post("/sessions/{sessionID}/select", action(log, "select-session", func(ctx context.Context, r *http.Request) error {
			_, err := app.SelectSession(ctx, chi.URLParam(r, "sessionID"))
			return err
		}))
		r.Post("/alerts/{alertID}/acknowledge", action(log, "acknowledge-alert", func(ctx context.Context, r *http.Request) error {
			_, err := app.AcknowledgeAlert(ctx, chi.URLParam(r, "alertID"))
			return err
		}))
		r.Post("/counter/start", action(log, "start-counting", func(ctx context.Context, r *http.Request) error {
			app.StartCounting(ctx)
			return nil
		}))
		r.Post("/counter/detections", action(log, "record-detection", func(ctx context.Context, r *http.Request) error {
			_, err := app.RecordDetection(ctx)
			return err
		}))
		r.Post("/counter/stop", action(log, "stop-counting", func(ctx context.Context, r *http.Request) error {
			_, err := app.RequestStopCounting(ctx)
			return err
		}))
	})

	return router
}

func NewGuiHandler(log zerolog.Logger, locale Locale, app dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		_, span := tracer.Start(r.Context(), "render-dashboard")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		f := formatterFor(r, locale)
		page := views.NewPage(app.Snapshot(), f, mockdata.MainEntrance)

		data := struct {
			Page  views.Page
			Query string
		}{
			Page:  page,
			Query: query(r),
		}

		buf := &strings.Builder{}
		if err = index.Execute(buf, data); err != nil {
			log.Error().Err(err).Msg("failed to render dashboard")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Add("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(buf.String()))
	}
}

func action(log zerolog.Logger, name string, fn func(context.Context, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), name)
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		requestLogger := log.With().Str("traceID", span.SpanContext().TraceID().String()).Logger()
		ctx = logging.NewContextWithLogger(ctx, requestLogger)

		err = fn(ctx, r)
		if err != nil {
			status := httpstatus.FromError(err)
			requestLogger.Debug().Err(err).Msgf("%s failed", name)
			http.Error(w, err.Error(), status)
			return
		}

		http.Redirect(w, r, "/"+query(r), http.StatusSeeOther)
	}
}


// formatterFor picks the locale from the lang query parameter, then the
// Accept-Language header, then the configured default.
func formatterFor(r *http.Request, locale Locale) timefmt.Formatter {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return timefmt.New(timefmt.Match(lang), locale.Location)
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		return timefmt.New(timefmt.Match(accept), locale.Location)
	}
	return timefmt.New(locale.Tag, locale.Location)
}

func query(r *http.Request) string {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		return ""
	}
	return "?" + url.Values{"lang": []string{lang}}.Encode()
}

func FileServer(r chi.Router, path string, root http.FileSystem) {
	if strings.ContainsAny(path, "{}*") {
		panic("FileServer does not permit any URL parameters.")
	}

	if path != "/" && path[len(path)-1] != '/' {
		r.Get(path, http.RedirectHandler(path+"/", http.StatusMovedPermanently).ServeHTTP)
		path += "/"
	}
	path += "*"

	r.Get(path, func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())
		pathPrefix := strings.TrimSuffix(rctx.RoutePattern(), "/*")
		fileServer := http.StripPrefix(pathPrefix, http.FileServer(root))
		fileServer.ServeHTTP(w, r)
	})
}
