package tile

// Pattern returns a width x height pixel stream of the gradient used to
// eyeball tile placement: the first byte of each pixel is x, the second y,
// the third 255-(x+y)/2, each truncated to a byte. Feeding it through a
// Scatterer reproduces the gradient inside every tile.
func Pattern(width, height int) []byte {
	pix := make([]byte, width*height*BytesPerPixel)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := (x + y*width) * BytesPerPixel
			pix[p] = byte(x)
			pix[p+1] = byte(y)
			pix[p+2] = byte(255 - (x+y)/2)
		}
	}
	return pix
}
