package heapstack

import (
	"io"
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// PageSize is the unit block sizes are configured in.
	PageSize = 4096
	// DefaultPages gives a 4 MiB nominal block.
	DefaultPages = 1024
	// HeaderSize is the fixed per-block overhead charged against the nominal
	// block size: an 8 byte link and an 8 byte used offset, packed.
	HeaderSize = 16
	// DefaultBlockCapacity is the usable bytes per block with default settings.
	DefaultBlockCapacity = DefaultPages*PageSize - HeaderSize
)

type config struct {
	capacity  int
	maxBlocks int
	log       logrus.FieldLogger
	metrics   *Metrics
}

// Option configures an Arena at construction.
type Option func(*config) error

// WithPages sets the nominal block size to n pages of PageSize bytes. The
// usable capacity is n*PageSize - HeaderSize. Zero selects DefaultPages.
func WithPages(n int) Option {
	return func(c *config) error {
		if n == 0 {
			n = DefaultPages
		}
		if n < 0 || n > math.MaxInt/PageSize {
			return errors.Wrapf(ErrInvalidCapacity, "pages %d", n)
		}
		c.capacity = n*PageSize - HeaderSize
		return nil
	}
}

// WithBlockCapacity sets the usable bytes per block directly.
func WithBlockCapacity(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return errors.Wrapf(ErrInvalidCapacity, "capacity %d", n)
		}
		c.capacity = n
		return nil
	}
}

// WithMaxBlocks limits the number of blocks the arena may create. Zero
// means unlimited.
func WithMaxBlocks(n int) Option {
	return func(c *config) error {
		if n < 0 {
			return errors.Wrapf(ErrInvalidConfig, "max blocks %d", n)
		}
		c.maxBlocks = n
		return nil
	}
}

// WithLogger sets the logger for block lifecycle events.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *config) error {
		if l == nil {
			return errors.Wrap(ErrInvalidConfig, "nil logger")
		}
		c.log = l
		return nil
	}
}

// WithMetrics attaches Prometheus instruments the arena keeps current.
func WithMetrics(m *Metrics) Option {
	return func(c *config) error {
		c.metrics = m
		return nil
	}
}

func defaultConfig() config {
	return config{
		capacity: DefaultBlockCapacity,
		log:      discardLogger(),
	}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
