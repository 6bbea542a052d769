package sentryx

import (
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
)

// Options configures fault reporting. An empty DSN leaves it disabled.
type Options struct {
	DSN         string
	Environment string
	Release     string
	Service     string
}

// Tags are attached to a captured event as searchable key/value pairs.
type Tags map[string]string

var (
	initOnce sync.Once
	enabled  bool
)

// Init sets up the sentry client once per process.
func Init(opts Options) error {
	var initErr error
	initOnce.Do(func() {
		if opts.DSN == "" {
			return
		}

		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              opts.DSN,
			Environment:      opts.Environment,
			Release:          opts.Release,
			ServerName:       opts.Service,
			AttachStacktrace: true,
		}); err != nil {
			initErr = fmt.Errorf("init sentry: %w", err)
			return
		}
		enabled = true
	})
	return initErr
}

// Enabled reports whether events are being sent.
func Enabled() bool {
	return enabled
}

// CaptureError reports a server fault. what describes the failing step,
// e.g. "server listen".
func CaptureError(err error, what string, tags Tags) {
	if !enabled || err == nil {
		return
	}
	withTags(tags, func(scope *sentry.Scope) {
		scope.SetTag("stage", what)
		sentry.CaptureException(err)
	})
}

// CaptureHTTPError reports a 5xx response that carried no underlying error.
func CaptureHTTPError(status int, message string) {
	if !enabled {
		return
	}
	withTags(Tags{"status": fmt.Sprint(status)}, func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		sentry.CaptureMessage(fmt.Sprintf("http %d: %s", status, message))
	})
}

// CapturePanic reports a recovered panic value without re-raising it.
func CapturePanic(rec any, tags Tags) {
	if !enabled {
		return
	}
	withTags(tags, func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelFatal)
		sentry.CurrentHub().Recover(rec)
	})
}

// RecoverPanicAndCapture reports a panic and re-raises it. Use with defer.
func RecoverPanicAndCapture() {
	if !enabled {
		return
	}
	if rec := recover(); rec != nil {
		sentry.CurrentHub().Recover(rec)
		sentry.Flush(2 * time.Second)
		panic(rec)
	}
}

func Flush(timeout time.Duration) {
	if !enabled {
		return
	}
	sentry.Flush(timeout)
}

func withTags(tags Tags, fn func(*sentry.Scope)) {
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		fn(scope)
	})
}
