package shader

import (
	"errors"
	"os"
	"strings"
	"testing"
)

func TestCompileSPIRV(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"triangle", TriangleWGSL},
		{"constant-buffer", ConstantBufferWGSL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			words, err := CompileSPIRV(tt.src)
			if err != nil {
				t.Fatalf("CompileSPIRV: %v", err)
			}
			if words[0] != SPIRVMagic {
				t.Errorf("magic = %#x", words[0])
			}
		})
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	if err := Validate("fn vs_main( {"); err == nil {
		t.Fatal("Validate accepted malformed WGSL")
	}
}

func TestLookupGLSL(t *testing.T) {
	for _, name := range GLSLNames() {
		src, err := LookupGLSL(name)
		if err != nil {
			t.Fatalf("LookupGLSL(%q): %v", name, err)
		}
		for _, s := range []string{src.Vertex, src.Fragment} {
			if !strings.HasPrefix(s, "#version 410 core") {
				t.Errorf("%s: missing version line", name)
			}
			if !strings.HasSuffix(s, "\x00") {
				t.Errorf("%s: source not NUL-terminated", name)
			}
		}
	}
	if len(GLSLNames()) != 3 {
		t.Errorf("GLSLNames = %v", GLSLNames())
	}
	if _, err := LookupGLSL("nope"); !errors.Is(err, ErrUnknownProgram) {
		t.Errorf("LookupGLSL(nope) = %v", err)
	}
}

func TestLoadGLSLOverride(t *testing.T) {
	dir := t.TempDir()
	vert, _ := GLSLPaths(dir, "triangle-moving")
	custom := "#version 410 core\nvoid main() { gl_Position = vec4(0.0); }\n"
	if err := os.WriteFile(vert, []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := LoadGLSL(dir, "triangle-moving")
	if err != nil {
		t.Fatalf("LoadGLSL: %v", err)
	}
	if src.Vertex != custom+"\x00" {
		t.Errorf("Vertex = %q", src.Vertex)
	}
	builtin, _ := LookupGLSL("triangle-moving")
	if src.Fragment != builtin.Fragment {
		t.Error("missing fragment file did not fall back to the built-in source")
	}

	if _, err := LoadGLSL(dir, "nope"); !errors.Is(err, ErrUnknownProgram) {
		t.Errorf("LoadGLSL(nope) = %v", err)
	}
}
