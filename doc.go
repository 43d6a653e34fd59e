// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package tileview displays very large bitmaps as a grid of GPU texture
// tiles.
//
// # Overview
//
// An image is streamed from disk in 64 KiB chunks and never held whole.
// Its pixels are scattered into 256x256 tiles as they arrive. A matching
// mesh covers the viewport with one quad per tile, drawn as a single
// triangle strip, so a frame costs one draw call however many tiles the
// image has.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/tileview"
//	    "github.com/gogpu/tileview/window"
//	    _ "github.com/gogpu/tileview/window/desktop"
//	    _ "github.com/gogpu/wgpu/hal/allbackends"
//	)
//
//	e := tileview.New()
//	defer e.Close()
//	if err := e.Load("scan.bmp"); err != nil {
//	    log.Fatal(err)
//	}
//	p := window.Default()
//	if err := p.Open(window.DefaultConfig()); err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//	if err := e.Run(p); err != nil {
//	    log.Fatal(err)
//	}
//
// # Input Format
//
// The bitmap reader accepts one layout: a "BM" file whose format word at
// offset 26 is 0x00200001, followed at the data offset by width*height
// pixels of three bytes each (B, G, R), bottom row first, rows unpadded.
// Anything else fails with a [FormatError].
//
// # Errors
//
// Failures fall into five categories, each with a concrete type and a
// sentinel usable with errors.Is: [ErrIO], [ErrFormat], [ErrCompile],
// [ErrLink] and [ErrGPUInit]. [Kind] maps any error onto its category.
//
// # Packages
//
//   - bitmap: header parsing and chunked pixel streaming
//   - tile: grid planning, mesh generation and pixel scattering
//   - window: provider interface, registry and event hub
//   - window/desktop: gogpu-backed window
//   - window/headless: offscreen rendering and snapshots
//
// # Logging
//
// Nothing is logged by default. See [SetLogger].
package tileview
