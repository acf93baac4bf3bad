// Package d3d12 is a Go rendition of the Direct3D 12 programming model
// used by the hello-window, hello-triangle and hello-constant-buffer samples.
//
// The native API (factory, adapters, device, queue, allocator, command
// list, descriptor heap, swap chain, fence) is described by interfaces in
// native.go. Two implementations exist: d3d12/halnative runs on
// gogpu/wgpu hal backends and d3d12/sim is a deterministic in-memory GPU.
//
// On top of the native interfaces the package provides the sample's four
// building blocks:
//
//   - [DeviceFactory] selects an adapter and creates the device, enabling
//     the debug layer first when asked.
//   - [Bind] creates everything tied to a window (queue, swap chain, render
//     target views, allocator, command list, fence) all-or-nothing.
//   - [Renderer] records, submits and presents one frame per Render call.
//   - [FenceSync] blocks the CPU until the frame just submitted completes,
//     so the allocator is never reset while the GPU still reads it.
//
// Typical setup:
//
//	factory, device, err := d3d12.DeviceFactory{EnableDebugLayer: true}.Create(api)
//	res, err := d3d12.Bind(factory, device, window, d3d12.BindOptions{})
//	r, err := d3d12.NewRenderer(res, d3d12.WithClearColor(hello.CornflowerNavy))
//	for running {
//		if err := r.Render(); err != nil {
//			return err
//		}
//	}
//	r.Close()
package d3d12
