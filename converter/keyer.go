package converter

// KeyThreshold is the channel value every one of R, G and B must exceed for
// a pixel to be keyed out.
const KeyThreshold = 250

// KeyBackground returns a copy of buf with every near-white pixel made fully
// transparent. It is a global colour key: white areas inside the artwork go
// too. Other pixels keep their alpha.
func KeyBackground(buf *PixelBuffer) *PixelBuffer {
	out := buf.Clone()
	pix := out.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		if pix[i] > KeyThreshold && pix[i+1] > KeyThreshold && pix[i+2] > KeyThreshold {
			pix[i+3] = 0
		}
	}
	return out
}
