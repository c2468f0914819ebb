package apperr

import (
	"errors"
	"fmt"
	"testing"

	"go.uber.org/multierr"
)

func TestKindOf(t *testing.T) {
	if KindOf(nil) != Internal {
		t.Error("nil error should map to Internal")
	}
	if KindOf(New(NotFound, "missing")) != NotFound {
		t.Error("single error kind not preserved")
	}
	if KindOf(errors.New("plain")) != Internal {
		t.Error("untyped error should map to Internal")
	}

	// 累积错误取最严重的类别
	var errs error
	errs = multierr.Append(errs, New(ValidationFailed, "bad quantity"))
	errs = multierr.Append(errs, New(StateConflict, "not approved"))
	if KindOf(errs) != StateConflict {
		t.Errorf("KindOf = %v, want StateConflict", KindOf(errs))
	}
	errs = multierr.Append(errs, New(IntegrityViolation, "stock negative"))
	if KindOf(errs) != IntegrityViolation {
		t.Errorf("KindOf = %v, want IntegrityViolation", KindOf(errs))
	}
}

func TestMessages(t *testing.T) {
	var errs error
	errs = multierr.Append(errs, New(ValidationFailed, "one"))
	errs = multierr.Append(errs, New(NotFound, "two"))
	msgs := Messages(errs)
	if len(msgs) != 2 || msgs[0] != "one" || msgs[1] != "two" {
		t.Errorf("Messages = %v", msgs)
	}
	if Messages(nil) != nil {
		t.Error("nil error should have no messages")
	}
}

func TestIs(t *testing.T) {
	var errs error
	errs = multierr.Append(errs, New(ValidationFailed, "bad"))
	errs = multierr.Append(errs, New(DuplicateInput, "dup"))
	if !Is(errs, DuplicateInput) {
		t.Error("DuplicateInput not found in chain")
	}
	if Is(errs, NotFound) {
		t.Error("NotFound unexpectedly found")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := fmt.Errorf("driver: connection refused")
	err := Wrap(Internal, cause, "failed to load material")
	if err.Error() != "failed to load material" {
		t.Errorf("message = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("cause lost from chain")
	}
}
