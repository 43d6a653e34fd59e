// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package bitmap reads the narrow bitmap subset consumed by tileview.
//
// Only one layout is accepted: a "BM" container whose header word at
// offset 26 equals [FormatCode], followed at the recorded data offset by
// width*height tightly packed 3-byte pixels stored B, G, R. Rows run
// bottom to top and carry no padding.
//
// Pixel data is never loaded as a whole. [Reader.Next] hands out bounded
// chunks of at most [ChunkSize] bytes, so peak memory stays flat for
// arbitrarily large images:
//
//	r, err := bitmap.Open("scan.bmp")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//	for {
//	    chunk, err := r.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    consume(chunk)
//	}
//
// Chunk boundaries are unrelated to pixel boundaries. Consumers that route
// pixels must carry partial pixels across calls (see tile.Scatterer).
package bitmap
