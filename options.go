package slidescene

import (
	"io"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Default canonical canvas size.
const (
	DefaultCanvasWidth  = 1920
	DefaultCanvasHeight = 1080
)

// importConfig holds options for Import.
type importConfig struct {
	canvasWidth  int
	canvasHeight int
	logger       *log.Logger
	newID        func() string
}

// Option configures Import.
type Option func(*importConfig)

func defaultImportConfig() importConfig {
	return importConfig{
		canvasWidth:  DefaultCanvasWidth,
		canvasHeight: DefaultCanvasHeight,
		logger:       discardLogger(),
		newID:        uuid.NewString,
	}
}

// WithCanvasSize sets the canonical canvas all geometry is scaled onto.
// Non-positive values are ignored.
func WithCanvasSize(width, height int) Option {
	return func(c *importConfig) {
		if width > 0 && height > 0 {
			c.canvasWidth = width
			c.canvasHeight = height
		}
	}
}

// WithLogger routes debug output about absorbed failures to l.
func WithLogger(l *log.Logger) Option {
	return func(c *importConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithIDGenerator replaces the random id source, mostly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(c *importConfig) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// SequentialIDs returns a deterministic generator producing prefix-1,
// prefix-2, ...
func SequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}
