package taskloop

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

// TestKindValues pins the stable numeric tags.
func TestKindValues(t *testing.T) {
	for _, tc := range []struct {
		kind Kind
		tag  uint8
		name string
	}{
		{KindOK, 0, "ok"},
		{KindInvalidArgument, 1, "invalid_argument"},
		{KindNotReady, 2, "not_ready"},
		{KindTimeout, 3, "timeout"},
		{KindCanceled, 4, "canceled"},
		{KindClosed, 5, "closed"},
		{KindOverflow, 6, "overflow"},
		{KindStopped, 7, "stopped"},
		{KindQueueFull, 8, "queue_full"},
		{KindRejected, 9, "rejected"},
		{KindNotSupported, 10, "not_supported"},
	} {
		if uint8(tc.kind) != tc.tag {
			t.Errorf("%s: tag = %d, want %d", tc.name, uint8(tc.kind), tc.tag)
		}
		if got := tc.kind.String(); got != tc.name {
			t.Errorf("tag %d: name = %q, want %q", tc.tag, got, tc.name)
		}
	}
}

func TestErrorFormatting(t *testing.T) {
	err := NewError(KindCanceled, "pool task canceled")
	if got, want := err.Error(), "canceled: pool task canceled"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got, want := NewError(KindTimeout, "").Error(), "timeout"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrorKindMatching(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewError(KindCanceled, "inner"))

	if !errors.Is(err, NewError(KindCanceled, "")) {
		t.Error("expected kind-based Is match")
	}
	if errors.Is(err, NewError(KindClosed, "")) {
		t.Error("unexpected match on different kind")
	}
	if got := KindOf(err); got != KindCanceled {
		t.Errorf("KindOf = %v, want KindCanceled", got)
	}
	if !IsCanceled(err) {
		t.Error("IsCanceled = false")
	}
	if KindOf(nil) != KindOK {
		t.Error("KindOf(nil) != KindOK")
	}
	if KindOf(errors.New("plain")) != KindOK {
		t.Error("KindOf(plain) != KindOK")
	}
}

func TestErrorfWrapsCause(t *testing.T) {
	err := Errorf(KindClosed, "read failed: %w", io.ErrClosedPipe)
	if !errors.Is(err, io.ErrClosedPipe) {
		t.Error("cause not reachable via errors.Is")
	}
	if KindOf(err) != KindClosed {
		t.Errorf("KindOf = %v, want KindClosed", KindOf(err))
	}
}

func TestPanicErrorUnwrap(t *testing.T) {
	pe := &PanicError{Value: io.EOF}
	if !errors.Is(pe, io.EOF) {
		t.Error("expected unwrap to reach io.EOF")
	}
	if (&PanicError{Value: "boom"}).Unwrap() != nil {
		t.Error("non-error panic value should not unwrap")
	}
}
