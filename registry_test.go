package hello

import (
	"errors"
	"slices"
	"testing"
)

type testFactory func() string

func TestRegistry(t *testing.T) {
	var r Registry[testFactory]

	if got := r.Available(); len(got) != 0 {
		t.Fatalf("zero registry Available() = %v, want empty", got)
	}

	r.Register("gl/triangle-color", func() string { return "color" })
	r.Register("d3d12/hello-window", func() string { return "window" })

	if want := []string{"d3d12/hello-window", "gl/triangle-color"}; !slices.Equal(r.Available(), want) {
		t.Errorf("Available() = %v, want %v", r.Available(), want)
	}
	if !r.IsRegistered("gl/triangle-color") {
		t.Error("IsRegistered(gl/triangle-color) = false")
	}

	f, ok := r.Get("d3d12/hello-window")
	if !ok || f() != "window" {
		t.Fatalf("Get(d3d12/hello-window) = %v, %v", f, ok)
	}

	r.Register("d3d12/hello-window", func() string { return "replaced" })
	if f, _ := r.Get("d3d12/hello-window"); f() != "replaced" {
		t.Error("Register did not replace the existing factory")
	}

	r.Unregister("gl/triangle-color")
	if r.IsRegistered("gl/triangle-color") {
		t.Error("Unregister left the factory registered")
	}
}

func TestRegistryMustGet(t *testing.T) {
	var r Registry[testFactory]
	r.Register("a", func() string { return "a" })

	if _, err := r.MustGet("a"); err != nil {
		t.Fatalf("MustGet(a) = %v", err)
	}
	_, err := r.MustGet("missing")
	if !errors.Is(err, ErrUnknownSample) {
		t.Fatalf("MustGet(missing) error = %v, want ErrUnknownSample", err)
	}
}
