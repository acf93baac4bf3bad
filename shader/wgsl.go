package shader

// TriangleWGSL passes a position and a per-vertex color through.
// Vertex layout: location 0 float32x3 position, location 1 float32x4 color.
const TriangleWGSL = `
struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) color: vec4<f32>,
}

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
}

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.position = vec4<f32>(in.position, 1.0);
    out.color = in.color;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return in.color;
}
`

// ConstantBufferWGSL is TriangleWGSL with every vertex moved by a uniform
// offset bound at group 0, binding 0. The uniform block is padded to 256
// bytes on the CPU side.
const ConstantBufferWGSL = `
struct SceneConstants {
    offset: vec4<f32>,
}

@group(0) @binding(0)
var<uniform> scene: SceneConstants;

struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) color: vec4<f32>,
}

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
}

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.position = vec4<f32>(in.position, 1.0) + scene.offset;
    out.color = in.color;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return in.color;
}
`

// Entry points shared by the WGSL sources.
const (
	VertexEntry   = "vs_main"
	FragmentEntry = "fs_main"
)
