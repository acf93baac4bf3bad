// Package hello holds the shared plumbing of the hello-triangle samples.
//
// # Overview
//
// The repository contains small, independent graphics samples over three
// stacks: OpenGL (package glsample), a Direct3D 12 programming model
// (packages d3d12, d3d12/halnative, d3d12/sim and samples) and a bare
// window stub (cmd/hellowindow). Each sample performs one-time setup and
// then renders a frame per redraw notification from the event loop
// (package eventloop).
//
// This package provides what every sample shares:
//
//   - [Sample], the per-sample lifecycle (Update, Render, Close).
//   - [Error], a phase-tagged error separating setup failures from frame
//     failures.
//   - [Config] with functional options and TOML loading ([LoadConfig]).
//   - [Registry], a name-keyed registry of sample factories.
//   - [SetLogger] / [Logger], the shared log/slog logger (silent by default).
//   - [Color], [Bounce] and [Wrap] for clear colors and animation.
//   - [SaveImage] for screenshots.
//
// # Quick Start
//
//	hello.SetLogger(slog.Default())
//
//	cfg := hello.NewConfig(hello.WithSize(1280, 720), hello.WithDebugLayer(true))
//	s, err := samples.New("d3d12/hello-triangle", samples.Env{API: api, Window: win, Config: cfg})
//	if err != nil {
//		log.Fatal(err) // hello.IsSetup(err) == true
//	}
//	defer s.Close()
//
// # Errors
//
// Every failure is fatal. Errors returned by setup code carry [PhaseSetup],
// errors returned while rendering carry [PhaseFrame]; use [IsSetup] and
// [IsFrame] to tell them apart, and errors.Is to match package sentinels.
package hello
