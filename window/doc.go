// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package window abstracts the surface a tile engine renders into.
//
// A [Provider] opens a window (or an offscreen stand-in), exposes its input
// as a gpucontext.EventSource and drives the frame loop, handing each
// iteration a [Frame] that carries the device, queue and render target.
//
// Implementations register themselves from init, the same way HAL
// backends do:
//
//	import _ "github.com/gogpu/tileview/window/desktop"
//
//	p, err := window.Get("desktop")
//
// Two variants ship with the module: window/desktop, a real window backed
// by gogpu, and window/headless, an offscreen target used for tests,
// snapshots and CI.
package window
