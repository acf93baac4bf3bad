package shader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ErrUnknownProgram is returned for a GLSL program name that has no sources.
var ErrUnknownProgram = errors.New("shader: unknown GLSL program")

// GLSL is a vertex/fragment source pair.
type GLSL struct {
	Vertex   string
	Fragment string
}

// Attribute locations shared by all GLSL programs.
const (
	PositionLocation = 0 // vec2
	ColorLocation    = 1 // vec3
)

// Built-in GLSL programs, keyed by name. Strings are NUL-terminated for
// gl.Strs.
var glsl = map[string]GLSL{
	"triangle-color": {
		Vertex: `#version 410 core
layout (location = 0) in vec2 position;
layout (location = 1) in vec3 color;
out vec3 vertexColor;
void main() {
    gl_Position = vec4(position, 0.0, 1.0);
    vertexColor = color;
}
` + "\x00",
		Fragment: `#version 410 core
in vec3 vertexColor;
out vec4 fragColor;
void main() {
    fragColor = vec4(vertexColor, 1.0);
}
` + "\x00",
	},
	"triangle-matrix": {
		Vertex: `#version 410 core
layout (location = 0) in vec2 position;
uniform mat4 matrix;
void main() {
    gl_Position = matrix * vec4(position, 0.0, 1.0);
}
` + "\x00",
		Fragment: `#version 410 core
out vec4 fragColor;
void main() {
    fragColor = vec4(1.0, 0.1, 0.0, 1.0);
}
` + "\x00",
	},
	"triangle-moving": {
		Vertex: `#version 410 core
layout (location = 0) in vec2 position;
uniform float offset;
void main() {
    gl_Position = vec4(position.x + offset, position.y, 0.0, 1.0);
}
` + "\x00",
		Fragment: `#version 410 core
out vec4 fragColor;
void main() {
    fragColor = vec4(1.0, 0.5, 0.2, 1.0);
}
` + "\x00",
	},
}

// LookupGLSL returns the built-in sources for name.
func LookupGLSL(name string) (GLSL, error) {
	src, ok := glsl[name]
	if !ok {
		return GLSL{}, fmt.Errorf("%w: %q", ErrUnknownProgram, name)
	}
	return src, nil
}

// GLSLNames returns the built-in program names in sorted order.
func GLSLNames() []string {
	names := make([]string, 0, len(glsl))
	for name := range glsl {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GLSLPaths returns the override file paths for name in dir:
// <dir>/<name>.vert and <dir>/<name>.frag.
func GLSLPaths(dir, name string) (vert, frag string) {
	return filepath.Join(dir, name+".vert"), filepath.Join(dir, name+".frag")
}

// LoadGLSL reads name's sources from dir. A missing file falls back to the
// built-in source for that stage.
func LoadGLSL(dir, name string) (GLSL, error) {
	src, err := LookupGLSL(name)
	if err != nil {
		return GLSL{}, err
	}
	vert, frag := GLSLPaths(dir, name)
	if src.Vertex, err = readStage(vert, src.Vertex); err != nil {
		return GLSL{}, err
	}
	if src.Fragment, err = readStage(frag, src.Fragment); err != nil {
		return GLSL{}, err
	}
	return src, nil
}

func readStage(path, fallback string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("shader: read %s: %w", path, err)
	}
	return string(data) + "\x00", nil
}
