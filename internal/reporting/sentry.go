package reporting

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

const flushTimeout = 2 * time.Second

// Reporter внешняя отчетность об ошибках
type Reporter interface {
	CaptureError(err error, tags map[string]string)
	Flush()
}

// Noop отчетность отключена
type Noop struct{}

func (Noop) CaptureError(error, map[string]string) {}
func (Noop) Flush()                                {}

// SentryReporter отправляет ошибки в Sentry
type SentryReporter struct {
	hub *sentry.Hub
}

// New инициализирует Sentry. Пустой dsn отключает отчетность.
func New(dsn, environment, release string) (Reporter, error) {
	if dsn == "" {
		return Noop{}, nil
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          release,
		AttachStacktrace: true,
		Tags: map[string]string{
			"service": "clearpath-signup",
		},
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return scrubPII(event)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sentry init: %w", err)
	}

	return &SentryReporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// CaptureError отправляет ошибку с тегами
func (r *SentryReporter) CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		r.hub.CaptureException(err)
	})
}

// Flush ждет отправки буферизованных событий
func (r *SentryReporter) Flush() {
	r.hub.Flush(flushTimeout)
}

// scrubPII удаляет email, IP и заголовки авторизации
func scrubPII(event *sentry.Event) *sentry.Event {
	if event == nil {
		return nil
	}
	if event.User.Email != "" {
		event.User.Email = "[redacted]"
	}
	event.User.IPAddress = ""

	if event.Request != nil {
		for k := range event.Request.Headers {
			switch k {
			case "Authorization", "Cookie":
				event.Request.Headers[k] = "[redacted]"
			}
		}
	}
	return event
}
