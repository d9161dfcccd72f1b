package notes

import (
	"time"

	"notetaker/internal/logging"
)

const DefaultMaxUploadBytes int64 = 10 << 20

type options struct {
	logger         logging.Logger
	location       *time.Location
	now            func() time.Time
	maxUploadBytes int64
}

type Option func(*options)

func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLocation sets the zone used for display dates and times.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func WithMaxUploadBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxUploadBytes = n
		}
	}
}

func resolveOptions(opts []Option) options {
	o := options{
		logger:         logging.Nop(),
		location:       time.Local,
		now:            time.Now,
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
