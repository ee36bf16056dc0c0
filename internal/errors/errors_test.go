package errors

import (
	"fmt"
	"testing"
)

func TestWrapfCarriesCodeAndCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrapf(cause, CodeInternal, "write snapshot %s", "out.json")

	if err.Code != CodeInternal {
		t.Errorf("code = %q, want %q", err.Code, CodeInternal)
	}
	if err.Message != "write snapshot out.json" {
		t.Errorf("message = %q", err.Message)
	}
	if !Is(err, cause) {
		t.Error("wrapped error should match its cause")
	}
	if !Is(err, ErrInternal) {
		t.Error("wrapped error should match the code sentinel")
	}
}

func TestFormattedConstructors(t *testing.T) {
	tests := []struct {
		err      *Error
		code     Code
		message  string
		sentinel *Error
	}{
		{NotFoundf("no record for %q", "Dune"), CodeNotFound, `no record for "Dune"`, ErrNotFound},
		{Validationf("bad column %d", 3), CodeValidation, "bad column 3", ErrValidation},
		{AmbiguousMatchf("%d candidates tied", 2), CodeAmbiguousMatch, "2 candidates tied", ErrAmbiguousMatch},
		{DataLossf("%d -> %d records", 10, 9), CodeDataLoss, "10 -> 9 records", ErrDataLoss},
		{LookupFailedf("isbn %s", "978"), CodeLookupFailed, "isbn 978", ErrLookupFailed},
		{Internalf("tx %s", "commit"), CodeInternal, "tx commit", ErrInternal},
	}

	for _, tt := range tests {
		if tt.err.Code != tt.code {
			t.Errorf("%s: code = %q, want %q", tt.message, tt.err.Code, tt.code)
		}
		if tt.err.Message != tt.message {
			t.Errorf("message = %q, want %q", tt.err.Message, tt.message)
		}
		if !Is(tt.err, tt.sentinel) {
			t.Errorf("%s: should match sentinel %q", tt.message, tt.sentinel.Code)
		}
	}
}

func TestFatalCodes(t *testing.T) {
	if !CodeDataLoss.Fatal() {
		t.Error("data loss must abort the pipeline")
	}
	for _, c := range []Code{CodeNotFound, CodeValidation, CodeAmbiguousMatch, CodeLookupFailed, CodeInternal} {
		if c.Fatal() {
			t.Errorf("%q should not be fatal", c)
		}
	}
}
