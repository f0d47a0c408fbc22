package taskloop

import (
	"io"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// DefaultLogger builds a JSON logger writing to w at the given level,
// backed by stumpy. Intended for quick wiring:
//
//	rt, err := taskloop.New(taskloop.WithLogger(
//		taskloop.DefaultLogger(os.Stderr, logiface.LevelWarning)))
//
// Any logiface backend works with [WithLogger]; this is just the batteries
// included one.
func DefaultLogger(w io.Writer, level logiface.Level) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(
			stumpy.WithWriter(w),
			stumpy.WithTimeField("ts"),
		),
		stumpy.L.WithLevel(level),
	).Logger()
}
