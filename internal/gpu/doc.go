// Package gpu drives the WebGPU HAL for the tile viewer.
//
// It owns everything between a populated tile.Set and pixels on a render
// target:
//
//	OpenDevice       HAL instance, adapter and device selection
//	CompileShader    WGSL stage compilation with naga diagnostics
//	LinkProgram      vertex + fragment module linking to SPIR-V
//	NewGeometry      vertex and index buffers from a tile.Plan
//	TileUploader     one texture layer per tile, nearest filtering
//	FrameRenderer    one triangle-strip draw per frame
//
// All objects are created and used on a single goroutine. GPU failures are
// returned as errors and never retried here.
package gpu
