// Package badge renders the "deployed by" badge returned by the process action.
//
// A badge is a logo on a white canvas with a tilted, shadowed text box
// holding two centred lines. Output is a PNG, usually base64-encoded so it
// can be inlined into an <img> data URI.
package badge

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io/fs"
	"math"
	"os"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

var (
	// ErrLogoNotFound is returned when the configured logo file does not exist.
	ErrLogoNotFound = errors.New("logo not found")
	// ErrTextTooWide is returned when a line would make the text box wider
	// than maxBoxWidth.
	ErrTextTooWide = errors.New("badge text too wide")
)

const (
	logoWidth        = 200
	padding          = 15
	boxPaddingTop    = 5
	boxPaddingSides  = 10
	boxOverlap       = 10
	shadowOffset     = 5
	borderWidth      = 2
	rotationDegrees  = -10.0
	defaultFontSize  = 20.0
	defaultFontDPI   = 72.0
	shadowAlpha      = 128
	pngBase64Prefix  = "iVBORw0KGgo"
	defaultLogoRatio = 0.36
	maxBoxWidth      = 8192

	// layoutVersion is part of the fingerprint; bump it when Draw's output changes.
	layoutVersion = 2
)

var (
	background  = color.White
	textColor   = color.Black
	borderColor = color.Black
	shadowColor = color.NRGBA{A: shadowAlpha}
)

// Options configure a Renderer. Zero values select the built-in logo and font.
type Options struct {
	LogoPath string
	FontPath string
	FontSize float64
	Logger   *zap.Logger
}

// Renderer draws badges. It is safe for concurrent use: font faces are
// created per call because opentype faces carry mutable glyph caches.
type Renderer struct {
	font        *opentype.Font
	fontSize    float64
	logoPath    string
	fingerprint string
	logger      *zap.Logger
}

// New returns a Renderer. An unreadable FontPath is not fatal: the bundled
// Go Regular face is used and a warning is logged.
func New(opts Options) (*Renderer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	size := opts.FontSize
	if size <= 0 {
		size = defaultFontSize
	}

	r := &Renderer{
		fontSize:    size,
		logoPath:    opts.LogoPath,
		fingerprint: fingerprint(opts.LogoPath, opts.FontPath, size),
		logger:      logger,
	}

	if opts.FontPath != "" {
		f, err := loadFont(opts.FontPath)
		if err == nil {
			r.font = f
			return r, nil
		}
		logger.Warn("badge font unavailable, using default font",
			zap.String("path", opts.FontPath), zap.Error(err))
	}

	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		// basicfont is used per render when r.font is nil.
		logger.Warn("bundled font failed to parse, using bitmap font", zap.Error(err))
		return r, nil
	}
	r.font = f
	return r, nil
}

// Fingerprint identifies the settings that change how a badge looks, for
// use in cache keys. It covers the logo and font files (path, size and
// modification time) and the font size.
func (r *Renderer) Fingerprint() string {
	return r.fingerprint
}

func fingerprint(logoPath, fontPath string, fontSize float64) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s|%g", layoutVersion, fileStamp(logoPath), fileStamp(fontPath), fontSize)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// fileStamp is path, size and mtime, or just the path when it cannot be read.
func fileStamp(path string) string {
	if path == "" {
		return ""
	}
	fi, err := os.Stat(path)
	if err != nil {
		return path
	}
	return fmt.Sprintf("%s:%d:%d", path, fi.Size(), fi.ModTime().UnixNano())
}

func loadFont(path string) (*opentype.Font, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return opentype.Parse(raw)
}

// Render returns the badge as a base64-encoded PNG.
func (r *Renderer) Render(line1, line2 string) (string, error) {
	raw, err := r.RenderPNG(line1, line2)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// RenderPNG returns the raw PNG bytes of the badge.
func (r *Renderer) RenderPNG(line1, line2 string) ([]byte, error) {
	img, err := r.Draw(line1, line2)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Draw composes the badge image.
func (r *Renderer) Draw(line1, line2 string) (*image.RGBA, error) {
	logo, err := r.logo()
	if err != nil {
		return nil, err
	}
	logoH := logo.Bounds().Dy()

	face, err := r.face()
	if err != nil {
		return nil, err
	}
	defer face.Close()

	m1 := measure(face, line1)
	m2 := measure(face, line2)
	textW := max(m1.width, m2.width)
	textH := m1.height + m2.height

	boxW := textW + 2*boxPaddingSides
	boxH := textH + 2*boxPaddingTop
	if boxW > maxBoxWidth {
		return nil, fmt.Errorf("%w: %d px, max %d", ErrTextTooWide, boxW, maxBoxWidth)
	}
	badgeW := max(boxW+2*padding, logoWidth+2*padding)
	badgeH := logoH + boxH + 2*padding

	canvas := image.NewRGBA(image.Rect(0, 0, badgeW, badgeH))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	logoX := (badgeW - logoWidth) / 2
	logoY := padding
	draw.Draw(canvas, image.Rect(logoX, logoY, logoX+logoWidth, logoY+logoH), logo, image.Point{}, draw.Over)

	// The box is drawn upright on its own transparent layer, then rotated
	// around the layer's box centre onto the canvas.
	layer := image.NewRGBA(image.Rect(0, 0, boxW+shadowOffset+1, boxH+shadowOffset+1))
	fillRect(layer, shadowOffset, shadowOffset, boxW+shadowOffset, boxH+shadowOffset, shadowColor, draw.Over)
	fillRect(layer, 0, 0, boxW, boxH, background, draw.Src)
	strokeRect(layer, 0, 0, boxW, boxH, borderWidth, borderColor)

	drawLine(layer, face, line1, m1, (boxW-m1.width)/2, boxPaddingTop)
	drawLine(layer, face, line2, m2, (boxW-m2.width)/2, boxPaddingTop+m1.height)

	boxX := (badgeW - boxW) / 2
	boxY := logoY + logoH - boxOverlap
	draw.BiLinear.Transform(canvas, rotation(rotationDegrees, float64(boxW)/2, float64(boxH)/2, float64(boxX), float64(boxY)),
		layer, layer.Bounds(), draw.Over, nil)

	return canvas, nil
}

// rotation maps layer coordinates to canvas coordinates: rotate by deg
// around (cx, cy), positive being counter-clockwise on screen, then shift
// by (px, py).
func rotation(deg, cx, cy, px, py float64) f64.Aff3 {
	rad := deg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	return f64.Aff3{
		cos, sin, cx + px - cos*cx - sin*cy,
		-sin, cos, cy + py + sin*cx - cos*cy,
	}
}

func (r *Renderer) face() (font.Face, error) {
	if r.font == nil {
		return basicfont.Face7x13, nil
	}
	face, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    r.fontSize,
		DPI:     defaultFontDPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}
	return face, nil
}

// logo returns the logo scaled to logoWidth, keeping its aspect ratio.
func (r *Renderer) logo() (image.Image, error) {
	if r.logoPath == "" {
		return defaultLogo(), nil
	}
	f, err := os.Open(r.logoPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrLogoNotFound, r.logoPath)
		}
		return nil, fmt.Errorf("open logo: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode logo %s: %w", r.logoPath, err)
	}
	sb := src.Bounds()
	if sb.Dx() == 0 || sb.Dy() == 0 {
		return nil, fmt.Errorf("decode logo %s: empty image", r.logoPath)
	}
	h := max(1, int(float64(logoWidth)*float64(sb.Dy())/float64(sb.Dx())))
	dst := image.NewRGBA(image.Rect(0, 0, logoWidth, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
	return dst, nil
}

type lineMetrics struct {
	width  int
	height int
	// ascent is the distance from the top of the line to its baseline.
	ascent int
}

// measure uses the face's line metrics for height so every non-empty line
// occupies the same vertical space regardless of its glyphs.
func measure(face font.Face, s string) lineMetrics {
	if s == "" {
		return lineMetrics{}
	}
	fm := face.Metrics()
	return lineMetrics{
		width:  font.MeasureString(face, s).Ceil(),
		height: (fm.Ascent + fm.Descent).Ceil(),
		ascent: fm.Ascent.Ceil(),
	}
}

func drawLine(dst draw.Image, face font.Face, s string, m lineMetrics, x, y int) {
	if s == "" {
		return
	}
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(textColor),
		Face: face,
		Dot:  fixed.P(x, y+m.ascent),
	}
	d.DrawString(s)
}

// fillRect paints the inclusive rectangle [x0,x1]x[y0,y1].
func fillRect(dst draw.Image, x0, y0, x1, y1 int, c color.Color, op draw.Op) {
	draw.Draw(dst, image.Rect(x0, y0, x1+1, y1+1), image.NewUniform(c), image.Point{}, op)
}

// strokeRect draws a border of width w inside the inclusive rectangle.
func strokeRect(dst draw.Image, x0, y0, x1, y1, w int, c color.Color) {
	fillRect(dst, x0, y0, x1, y0+w-1, c, draw.Src)
	fillRect(dst, x0, y1-w+1, x1, y1, c, draw.Src)
	fillRect(dst, x0, y0, x0+w-1, y1, c, draw.Src)
	fillRect(dst, x1-w+1, y0, x1, y1, c, draw.Src)
}
