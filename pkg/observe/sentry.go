package observe

import (
	"encoding/json"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"

	"weather-avf/pkg/logger"
)

const (
	_sentryMaxErrorDepth        int           = 9
	_sentryFlushTimeout         time.Duration = 5 * time.Second
	_sentryServerRequestTimeout time.Duration = 5 * time.Second

	// matches the logger's timestamp encoding
	_logTimeLayout = "2006-01-02T15-04-05.000"
)

// SentryHook is an io.Writer teed into the logger that forwards error level
// entries to Sentry.
type SentryHook struct {
	appZone string
	appName string
	capture func(*sentry.Event)
	l       *logger.Logger
}

// NewSentryHook initializes the Sentry client. It returns nil when dsn is
// empty, which the logger treats as "no extra writer".
func NewSentryHook(
	appZone, appName string,
	maxErrorDepth int,
	isDebug bool,
	dsn string,
) *SentryHook {
	if dsn == "" {
		return nil
	}
	if maxErrorDepth == 0 {
		maxErrorDepth = _sentryMaxErrorDepth
	}
	sentryTransport := sentry.NewHTTPTransport()
	sentryTransport.Timeout = _sentryServerRequestTimeout
	if err := sentry.Init(
		sentry.ClientOptions{
			AttachStacktrace: true,
			Debug:            isDebug,
			Dsn:              dsn,
			Environment:      appZone,
			MaxErrorDepth:    maxErrorDepth,
			ServerName:       appName,
			Transport:        sentryTransport,
		}); err != nil {

		log.Println("Stacktracer init error: ", err.Error())
		return nil
	}
	log.Println("Stacktracer init success")
	return &SentryHook{
		appZone: appZone,
		appName: appName,
		capture: func(e *sentry.Event) { sentry.CaptureEvent(e) },
	}
}

// Flush waits for buffered events to be sent.
func (h *SentryHook) Flush() {
	if h != nil {
		sentry.Flush(_sentryFlushTimeout)
	}
}

func (*SentryHook) mapLevel(zl zapcore.Level) sentry.Level {

	switch zl {

	case zapcore.DebugLevel, zapcore.InvalidLevel:
		return sentry.LevelDebug
	case zapcore.InfoLevel:
		return sentry.LevelInfo
	case zapcore.WarnLevel:
		return sentry.LevelWarning
	case zapcore.ErrorLevel:
		return sentry.LevelError
	case zapcore.FatalLevel, zapcore.PanicLevel:
		return sentry.LevelFatal

	}

	return sentry.LevelDebug
}

// Reporting reports whether entries are forwarded for this environment.
func (h *SentryHook) Reporting() bool {
	if h == nil {
		return false
	}
	switch h.appZone {
	case "prod", "production", "dev", "development":
		return true
	}
	return false
}

func (h *SentryHook) Write(p []byte) (n int, err error) {

	if h.Reporting() {
		type T struct {
			Level      string `json:"level"`
			AppName    string `json:"app_name"`
			AppZone    string `json:"app_zone"`
			CallerFile string `json:"caller_file"`
			CallerLine int    `json:"caller_line"`
			CallerFunc string `json:"caller_func"`
			Stack      string `json:"stack"`
			Message    string `json:"msg"`
			Error      string `json:"error"`
			Timestamp  string `json:"timestamp"`
		}
		t := T{}
		if err := json.Unmarshal(p, &t); err == nil {
			level, err := zapcore.ParseLevel(t.Level)
			if err == nil && len(t.Message) > 0 {
				timestamp, _ := time.ParseInLocation(_logTimeLayout, t.Timestamp, time.Local)

				switch level {

				case zapcore.ErrorLevel, zapcore.FatalLevel, zapcore.PanicLevel:
					h.capture(h.event(level, timestamp, t.Message, t.Error, map[string]any{
						"CallerFile": t.CallerFile,
						"CallerLine": t.CallerLine,
						"CallerFunc": t.CallerFunc,
						"Stack":      t.Stack,
						"TimeStamp":  t.Timestamp,
					}))
				}

			} else if err != nil {
				msg := errors.Wrap(err, "[SentryHook] parse zap level: ")
				h.report(msg)
			}

		} else {
			h.report(errors.New("[SentryHook] json.Unmarshal data"))
		}

	}

	return len(p), nil
}

func (h *SentryHook) event(level zapcore.Level, ts time.Time, message, errText string, extra map[string]any) *sentry.Event {
	event := sentry.NewEvent()
	event.Extra["AppName"] = h.appName
	event.Environment = h.appZone
	event.Level = h.mapLevel(level)
	event.Timestamp = ts
	event.Message = message
	event.Extra["Error"] = errText
	for k, v := range extra {
		event.Extra[k] = v
	}
	event.Exception = append(event.Exception, sentry.Exception{
		Type:       message,
		Value:      errText,
		Stacktrace: sentry.NewStacktrace(),
	})
	return event
}

// report must not go through the logger's error path: the hook is one of its
// writers.
func (h *SentryHook) report(err error) {
	if h.l != nil {
		h.l.Warning(err.Error())
	} else {
		log.Println(err.Error())
	}
}

func (h *SentryHook) SetLogger(l *logger.Logger) {
	if l != nil {
		h.l = l
	}
}
