package panel

import (
	"embed"
	"fmt"
	"image"
	"image/color"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/phinze/darkpad/internal/device"
)

//go:embed icons/*.svg
var icons embed.FS

// Colors
var (
	ColorWake   = color.RGBA{255, 200, 50, 255}
	ColorVolume = color.RGBA{100, 149, 237, 255}
	ColorTrack  = color.RGBA{120, 200, 120, 255}
	ColorAlert  = color.RGBA{230, 80, 80, 255}
	ColorLabel  = color.RGBA{220, 220, 220, 255}
)

// iconFor returns the icon file and tint for a flash.
func iconFor(f Flash) (string, color.Color) {
	switch f.Key {
	case device.KEY_POWER:
		return "power.svg", ColorWake
	case device.KEY_VOLUMEUP:
		return "volume-up.svg", ColorVolume
	case device.KEY_VOLUMEDOWN:
		return "volume-down.svg", ColorVolume
	case device.KEY_NEXTSONG:
		return "skip-forward.svg", ColorTrack
	case device.KEY_PREVIOUSSONG:
		return "skip-back.svg", ColorTrack
	}
	return "touch-off.svg", ColorAlert
}

// RenderFlash draws the icon and label for f into a size x size image.
func RenderFlash(f Flash, size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	name, tint := iconFor(f)
	iconSize := size * 2 / 3
	icon := renderSVGIcon(name, iconSize, tint)
	x := (size - iconSize) / 2
	draw.Draw(img, image.Rect(x, 0, x+iconSize, iconSize), icon, image.Point{}, draw.Over)

	face := basicfont.Face7x13
	width := font.MeasureString(face, f.Label).Round()
	drawText(img, f.Label, (size-width)/2, size-4, face, ColorLabel)
	return img
}

// renderSVGIcon renders an embedded SVG with the given size and color.
func renderSVGIcon(name string, size int, iconColor color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	data, err := icons.ReadFile("icons/" + name)
	if err != nil {
		log.Errorf("Missing icon %s: %v", name, err)
		return img
	}

	r, g, b, _ := iconColor.RGBA()
	hexColor := fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
	svg := strings.ReplaceAll(string(data), "currentColor", hexColor)

	icon, err := oksvg.ReadIconStream(strings.NewReader(svg))
	if err != nil {
		log.Errorf("Failed to parse SVG %s: %v", name, err)
		return img
	}

	icon.SetTarget(0, 0, float64(size), float64(size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)
	return img
}

func drawText(img *image.RGBA, text string, x, y int, face font.Face, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
