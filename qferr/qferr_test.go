package qferr

import (
	"errors"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "bare",
			err:  New(BadSize, "pixel_image.create_roi", ""),
			want: "pixel_image.create_roi: bad_size",
		},
		{
			name: "with context",
			err:  New(BadParam, "forest.create", "min_size > max_size"),
			want: "forest.create: bad_param: min_size > max_size",
		},
		{
			name: "wrapped",
			err:  Wrap(CaughtError, "pnm.read", errors.New("short read")),
			want: "pnm.read: caught_error: short read",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(Fatal, "forest.update", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is should see through Unwrap to the cause")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(Fatal, "op", nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestIs(t *testing.T) {
	err := New(NotFound, "forest.get_segments", "")
	if !Is(err, NotFound) {
		t.Error("Is should match the error's Kind")
	}
	if Is(err, BadSize) {
		t.Error("Is should not match a different Kind")
	}
	if Is(errors.New("plain"), NotFound) {
		t.Error("Is should not match a non-*Error")
	}
}
