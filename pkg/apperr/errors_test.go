package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	err := IO(os.ErrPermission, "render.write", "write %s", "out.mp4")
	want := "render.write: [IO] write out.mp4: permission denied"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("format WIDEFULLHD: %w", Configuration("render.assets", "missing %s", "logo.png"))

	if !errors.Is(err, ErrConfiguration) {
		t.Error("expected errors.Is to match ErrConfiguration")
	}
	if errors.Is(err, ErrMediaRead) {
		t.Error("did not expect a match with ErrMediaRead")
	}
	if CodeOf(err) != CodeConfiguration {
		t.Errorf("CodeOf = %s, want %s", CodeOf(err), CodeConfiguration)
	}
}

func TestUnwrapKeepsCause(t *testing.T) {
	err := MediaRead(os.ErrNotExist, "session.media", "no media uploaded")
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("expected cause to be reachable through Unwrap")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{New(CodeValidation, "", "bad field"), http.StatusBadRequest},
		{New(CodeNotFound, "", "missing"), http.StatusNotFound},
		{New(CodeMediaRead, "", "broken"), http.StatusUnprocessableEntity},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
