package logger

import (
	"io"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timeLayout = "2006-01-02T15-04-05.000"

type Logger struct {
	appEnv  string
	appName string
	l       *zap.Logger
}

type Options struct {
	AppName string
	AppEnv  string
	// Level is one of debug, info, warn, error. Empty means debug.
	Level   string
	Writers []io.Writer
}

func NewZapLogger(appName string, writers ...io.Writer) *Logger {
	return New(Options{AppName: appName, Writers: writers})
}

func New(opts Options) *Logger {
	var multiWriters []zapcore.WriteSyncer

	cfg := zap.NewProductionEncoderConfig()

	cfg.EncodeTime = timeEncoder(timeLayout, time.Local)
	cfg.TimeKey = "timestamp"

	if len(opts.Writers) == 0 {
		multiWriters = append(multiWriters, os.Stdout)
	} else {
		for _, writer := range opts.Writers {
			if writer == nil {
				continue
			}
			multiWriters = append(multiWriters, zapcore.AddSync(writer))
		}
	}

	level := zapcore.DebugLevel
	if opts.Level != "" {
		if parsed, err := zapcore.ParseLevel(opts.Level); err == nil {
			level = parsed
		}
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(cfg),
		zapcore.NewMultiWriteSyncer(multiWriters...),
		level,
	)

	return &Logger{
		appEnv:  opts.AppEnv,
		appName: opts.AppName,
		l:       zap.New(core),
	}
}

// Nop returns a logger that discards everything. Used by tests.
func Nop() *Logger {
	return &Logger{l: zap.NewNop()}
}

func (l *Logger) Stop() (err error) {
	if err = l.l.Sync(); err != nil {
		return
	}
	return
}

func (l *Logger) Error(err error, fields ...map[string]any) {
	zl, base := l.entry(fields)
	zl.Error(err.Error(), append(base, zap.String("error", err.Error()), zap.Stack("stack"))...)
}

func (l *Logger) Info(msg string, fields ...map[string]any) {
	zl, base := l.entry(fields)
	zl.Info(msg, base...)
}

func (l *Logger) Warning(msg string, fields ...map[string]any) {
	zl, base := l.entry(fields)
	zl.Warn(msg, base...)
}

func (l *Logger) Debug(msg string, fields ...map[string]any) {
	zl, base := l.entry(fields)
	zl.Debug(msg, base...)
}

func (l *Logger) Fatal(msg string, fields ...map[string]any) {
	zl, base := l.entry(fields)
	zl.Fatal(msg, base...)
}

// entry must be called directly from a level method so the caller fields
// point at the code that logged.
func (l *Logger) entry(fields []map[string]any) (*zap.Logger, []zap.Field) {
	file, line, funcName := getRuntimeParams(3)

	zl := l.l
	if len(fields) > 0 {
		zl = zl.With(mapToZapFields(fields[0])...)
	}

	return zl, []zap.Field{
		zap.String("app_zone", l.appEnv),
		zap.String("app_name", l.appName),
		zap.String("caller_file", file),
		zap.Int("caller_line", line),
		zap.String("caller_func", funcName),
	}
}

func mapToZapFields(data map[string]any) []zap.Field {
	zapFields := make([]zap.Field, 0, len(data))

	for k, v := range data {
		zapFields = append(zapFields, zap.Any(k, v))
	}

	return zapFields
}

// getRuntimeParams reports the frame skip levels above itself.
func getRuntimeParams(skip int) (file string, line int, funcName string) {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "not_defined", 0, "not_defined"
	}
	if fn := runtime.FuncForPC(pc); fn != nil {
		funcName = fn.Name()
	}
	return file, line, funcName
}

func timeEncoder(layout string, location *time.Location) func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	return func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		t = t.In(location)
		type appendTimeEncoder interface {
			AppendTimeLayout(time.Time, string)
		}
		if enc, ok := enc.(appendTimeEncoder); ok {
			enc.AppendTimeLayout(t, layout)
			return
		}
		enc.AppendString(t.Format(layout))
	}
}
