package hal

import "image"

func rgb565(r, g, b uint8) uint16 {
	rr := uint16(r>>3) & 0x1F
	gg := uint16(g>>2) & 0x3F
	bb := uint16(b>>3) & 0x1F
	return (rr << 11) | (gg << 5) | bb
}

func rgb888From565(p uint16) (r, g, b uint8) {
	rr := (p >> 11) & 0x1F
	gg := (p >> 5) & 0x3F
	bb := p & 0x1F

	r = uint8((rr * 255) / 31)
	g = uint8((gg * 255) / 63)
	b = uint8((bb * 255) / 31)
	return r, g, b
}

// Snapshot converts an RGB565 framebuffer to an RGBA image.
func Snapshot(fb Framebuffer) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width(), fb.Height()))
	if fb.Format() != PixelFormatRGB565 {
		return img
	}
	if hf, ok := fb.(*hostFramebuffer); ok {
		src := make([]byte, len(hf.buf))
		hf.snapshotRGB565(src)
		expandRGB565(img, src, hf.stride)
		return img
	}
	expandRGB565(img, fb.Buffer(), fb.StrideBytes())
	return img
}

func expandRGB565(dst *image.RGBA, src []byte, stride int) {
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	for y := 0; y < h; y++ {
		row := y * stride
		for x := 0; x < w; x++ {
			i := row + x*2
			if i+1 >= len(src) {
				return
			}
			r, g, b := rgb888From565(uint16(src[i]) | uint16(src[i+1])<<8)
			j := dst.PixOffset(x, y)
			dst.Pix[j+0] = r
			dst.Pix[j+1] = g
			dst.Pix[j+2] = b
			dst.Pix[j+3] = 0xFF
		}
	}
}
