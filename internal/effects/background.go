package effects

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"strings"

	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/zoomcast/internal/config"
)

// BackgroundKind selects the canvas fill variant
type BackgroundKind int

const (
	BGSolid BackgroundKind = iota
	BGLinear
	BGRadial
	BGImage
)

// BackgroundKindByName resolves a kind from its configuration name.
// Unknown names fall back to a solid fill.
func BackgroundKindByName(name string) BackgroundKind {
	switch strings.ToLower(name) {
	case "linear", "gradient":
		return BGLinear
	case "radial":
		return BGRadial
	case "image":
		return BGImage
	default:
		return BGSolid
	}
}

// Background is a resolved canvas fill: kind plus its parameters. One
// Background is built per session and drawn every frame.
type Background struct {
	Kind BackgroundKind
	A    color.RGBA // solid color and first gradient stop
	B    color.RGBA // second gradient stop
	Img  image.Image
}

// BackgroundFromStyle resolves the style fields into a drawable
// background. A missing image file is an error; the caller decides
// whether to fall back or abort.
func BackgroundFromStyle(style config.StyleConfig) (Background, error) {
	bg := Background{
		Kind: BackgroundKindByName(style.BGType),
		A:    ParseHexColor(style.BGColor, color.RGBA{30, 30, 46, 255}),
		B:    ParseHexColor(style.BGColor2, color.RGBA{48, 48, 74, 255}),
	}

	if bg.Kind == BGImage {
		if style.BGImage == "" {
			return bg, fmt.Errorf("background type is image but no image path is set")
		}
		f, err := os.Open(style.BGImage)
		if err != nil {
			return bg, fmt.Errorf("failed to open background image: %w", err)
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return bg, fmt.Errorf("failed to decode background image: %w", err)
		}
		bg.Img = img
	}

	return bg, nil
}

// Draw fills the whole destination with the background
func (bg Background) Draw(dst *image.RGBA) {
	switch bg.Kind {
	case BGLinear:
		bg.drawLinear(dst)
	case BGRadial:
		bg.drawRadial(dst)
	case BGImage:
		if bg.Img != nil {
			bg.drawImage(dst)
			return
		}
		// No image loaded: degrade to the solid color.
		fillSolid(dst, bg.A)
	default:
		fillSolid(dst, bg.A)
	}
}

func fillSolid(dst *image.RGBA, c color.RGBA) {
	b := dst.Rect
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := dst.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Pix[i+0] = c.R
			dst.Pix[i+1] = c.G
			dst.Pix[i+2] = c.B
			dst.Pix[i+3] = 255
			i += 4
		}
	}
}

// drawLinear fills a top-left to bottom-right gradient
func (bg Background) drawLinear(dst *image.RGBA) {
	b := dst.Rect
	w := float64(b.Dx())
	h := float64(b.Dy())
	span := w + h
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := dst.PixOffset(b.Min.X, y)
		fy := float64(y - b.Min.Y)
		for x := b.Min.X; x < b.Max.X; x++ {
			p := (float64(x-b.Min.X) + fy) / span
			c := lerpColor(bg.A, bg.B, p)
			dst.Pix[i+0] = c.R
			dst.Pix[i+1] = c.G
			dst.Pix[i+2] = c.B
			dst.Pix[i+3] = 255
			i += 4
		}
	}
}

// drawRadial fills a center-out gradient
func (bg Background) drawRadial(dst *image.RGBA) {
	b := dst.Rect
	cx := float64(b.Min.X) + float64(b.Dx())/2
	cy := float64(b.Min.Y) + float64(b.Dy())/2
	maxD := math.Hypot(float64(b.Dx())/2, float64(b.Dy())/2)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := dst.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			p := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy) / maxD
			c := lerpColor(bg.A, bg.B, p)
			dst.Pix[i+0] = c.R
			dst.Pix[i+1] = c.G
			dst.Pix[i+2] = c.B
			dst.Pix[i+3] = 255
			i += 4
		}
	}
}

// drawImage scales the image to cover the destination, center-cropped
func (bg Background) drawImage(dst *image.RGBA) {
	sb := bg.Img.Bounds()
	db := dst.Rect
	if sb.Dx() == 0 || sb.Dy() == 0 {
		fillSolid(dst, bg.A)
		return
	}

	scale := math.Max(
		float64(db.Dx())/float64(sb.Dx()),
		float64(db.Dy())/float64(sb.Dy()),
	)
	cropW := float64(db.Dx()) / scale
	cropH := float64(db.Dy()) / scale
	x0 := float64(sb.Min.X) + (float64(sb.Dx())-cropW)/2
	y0 := float64(sb.Min.Y) + (float64(sb.Dy())-cropH)/2
	crop := image.Rect(int(x0), int(y0), int(x0+cropW), int(y0+cropH))

	xdraw.ApproxBiLinear.Scale(dst, db, bg.Img, crop, xdraw.Src, nil)
}

func lerpColor(a, b color.RGBA, p float64) color.RGBA {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return color.RGBA{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*p),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*p),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*p),
		A: 255,
	}
}
