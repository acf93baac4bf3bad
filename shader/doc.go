// Package shader holds the shader sources used by the samples.
//
// The Direct3D12-model samples are written in WGSL and compiled to SPIR-V
// with naga. The OpenGL samples use GLSL 4.10 core; their sources can be
// overridden from a directory for hot reload (see LoadGLSL).
package shader
