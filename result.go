package wikicheck

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Result contains the outcome of a verification pass.
type Result struct {
	TargetURL  string
	LandingURL string
	StatusCode int
	Image      Image
}

type Image []byte

// WriteToFile persists the screenshot artifact to the given path, creating
// parent directories if absent and overwriting any prior file.
func (result *Result) WriteToFile(path string) error {
	if len(result.Image) == 0 {
		return errors.New("no image data to write")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return err
		}
	}

	return os.WriteFile(path, result.Image, 0o644)
}

// WriteToFolder saves the screenshot to the given folder under a filename
// derived from the target URL (scheme_host_path.png).
func (result *Result) WriteToFolder(folderPath string) (filename string, err error) {
	if len(result.Image) == 0 {
		return "", nil // Nothing to save.
	}

	if err := os.MkdirAll(folderPath, os.ModePerm); err != nil {
		return "", err
	}

	u, err := url.Parse(result.TargetURL)
	if err != nil {
		return "", err
	}

	name := u.Scheme + "_" + u.Host + u.Path
	name = strings.TrimSuffix(name, "/")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, ":", "-")

	filename = filepath.Join(folderPath, strings.ToLower(name)+".png")

	if err := os.WriteFile(filename, result.Image, 0o644); err != nil {
		return "", err
	}

	return filename, nil
}

// Origin returns the scheme://host origin of the target URL, suitable as an
// imprint caption.
func (result *Result) Origin() (string, error) {
	u, err := url.Parse(result.TargetURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}

	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("no origin in %q", result.TargetURL)
	}

	return u.Scheme + "://" + u.Host, nil
}

// Imprint returns a copy of the image with the caption rendered in a bar
// below the original content.
func (imgB Image) Imprint(caption string) (Image, error) {
	img, err := png.Decode(bytes.NewReader(imgB))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	face, err := captionFace()
	if err != nil {
		return nil, err
	}

	const padding = 20
	const borderSize = 1

	w := img.Bounds().Dx()
	h := img.Bounds().Dy() + padding*2 + borderSize
	dc := gg.NewContext(w, h)

	dc.DrawImage(img, 0, 0)

	yLine := float64(img.Bounds().Dy())
	dc.SetColor(color.Black)
	dc.DrawLine(0, yLine, float64(w), yLine)
	dc.SetLineWidth(float64(borderSize))
	dc.Stroke()
	dc.SetColor(color.White)
	dc.DrawRectangle(0, yLine, float64(w), float64(padding*2))
	dc.Fill()
	dc.SetColor(color.Black)
	dc.SetFontFace(face)
	dc.DrawStringAnchored(caption, float64(w)/2, yLine+float64(padding), 0.5, 0.3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return buf.Bytes(), nil
}

func captionFace() (font.Face, error) {
	ttFont, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse caption font: %w", err)
	}

	return truetype.NewFace(ttFont, &truetype.Options{
		Size: 14,
	}), nil
}
