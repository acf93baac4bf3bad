// Package glsample holds the OpenGL 4.1 core samples: a colored triangle,
// a triangle moved by a mat4 uniform and one moved by a float uniform.
//
// All GL calls must happen on the thread that owns the context. Samples are
// created after the window made its context current and gl.Init succeeded;
// see internal/glfwwin.
//
// Programs can be reloaded while a sample runs. When Env.ShaderDir is set,
// <dir>/<program>.vert and <dir>/<program>.frag override the built-in
// sources, and saving either file recompiles the program on the next
// Update. A failed compile keeps the previous program.
package glsample
