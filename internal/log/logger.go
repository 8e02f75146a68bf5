// Package log provides structured logging for the loader using zap.
package log

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with loader-specific helpers.
type Logger struct {
	*zap.Logger
}

var (
	// L is the global logger instance.
	L    *Logger
	once sync.Once
)

// Init initializes the global logger with the given configuration.
// Safe to call multiple times; only the first call takes effect.
func Init(debug bool) {
	once.Do(func() {
		L = New(debug)
	})
}

// New creates a new Logger instance.
func New(debug bool) *Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		logger = zap.NewNop()
	}

	return &Logger{Logger: logger}
}

// NewNop creates a no-op logger for testing.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// ModuleLoaded logs a successful load of a module.
func (l *Logger) ModuleLoaded(name string, id uint16, mappedSize uint64, isLib bool) {
	l.Info("module loaded",
		zap.String("name", name),
		zap.Uint16("id", id),
		Size(mappedSize),
		zap.Bool("is_lib", isLib),
	)
}

// ModuleLoadFailed logs a failed load with actionable context, matching
// the firmware-directory guidance callers should surface to the user.
func (l *Logger) ModuleLoadFailed(name string, err error) {
	l.Error("module load failed",
		zap.String("name", name),
		zap.Error(err),
		zap.String("hint", "please make sure you have the PS4 firmware system directory inside the directory with the executable"),
	)
}

// DependencyResolved logs a dependency file located on disk.
func (l *Logger) DependencyResolved(want, foundPath string) {
	l.Debug("dependency resolved",
		zap.String("want", want),
		zap.String("path", foundPath),
	)
}

// SymbolPublished logs a symbol registration during the publication phases.
func (l *Logger) SymbolPublished(phase, name string, addr uint64) {
	l.Debug("symbol published",
		zap.String("phase", phase),
		zap.String("name", name),
		Addr(addr),
	)
}

// WithModule returns a logger with the module name field preset.
func (l *Logger) WithModule(name string) *Logger {
	return &Logger{Logger: l.Logger.With(zap.String("module", name))}
}

// With returns a logger with a run-id field preset, so every line a
// loader.Runtime emits can be correlated back to that run.
func (l *Logger) With(runID string) *Logger {
	return &Logger{Logger: l.Logger.With(zap.String("run_id", runID))}
}

// Hex formats a uint64 as a hex string for logging.
func Hex(v uint64) string {
	return "0x" + hexString(v)
}

func hexString(v uint64) string {
	const digits = "0123456789abcdef"
	if v == 0 {
		return "0"
	}
	buf := make([]byte, 16)
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = digits[v&0xf]
		v >>= 4
	}
	return string(buf[i:])
}

// Addr creates an address field.
func Addr(addr uint64) zap.Field {
	return zap.String("addr", Hex(addr))
}

// Size creates a size field.
func Size(size uint64) zap.Field {
	return zap.Uint64("size", size)
}
