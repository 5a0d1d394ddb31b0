// Package blend implements the alpha compositing operator used to merge
// a script VM's layer onto the shared LED canvas.
//
// Porter and Duff described twelve distinct composition operations; the
// canvas only ever needs source-over, so unlike a general purpose image
// compositor this package exposes exactly that one operator, applied with
// integer arithmetic so that every VM's blend commits an identical,
// reproducible result regardless of goroutine scheduling.
package blend

// Pixel is a single LED sample. Alpha is a blend weight, not the
// transparency of a window system.
type Pixel struct {
	R, G, B, A uint8
}

// Zero is the cleared-canvas pixel value.
var Zero = Pixel{}

// Over composites src atop dst using the source-over operator with source
// alpha as the blend weight:
//
//	out = (src*a + dst*(255-a) + 127) / 255
//
// applied component-wise to R, G, B. The resulting alpha is the max of the
// two input alphas, so a fully transparent source never erases a backdrop
// that a previous layer already made opaque.
func Over(src, dst Pixel) Pixel {
	a := uint32(src.A)
	inv := 255 - a

	return Pixel{
		R: mix(src.R, dst.R, a, inv),
		G: mix(src.G, dst.G, a, inv),
		B: mix(src.B, dst.B, a, inv),
		A: maxU8(src.A, dst.A),
	}
}

func mix(src, dst uint8, a, inv uint32) uint8 {
	return uint8((uint32(src)*a + uint32(dst)*inv + 127) / 255)
}

func maxU8(a, b uint8) uint8 {
	if a > b {
		return a
	}
	return b
}
