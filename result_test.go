package wikicheck

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func testPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestWriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verification", "initial_state.png")

	result := &Result{
		TargetURL: "http://localhost:3000",
		Image:     testPNG(t, 100, 50, color.White),
	}

	if err := result.WriteToFile(path); err != nil {
		t.Fatalf("WriteToFile failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Artifact not written: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("Artifact is empty")
	}
}

func TestWriteToFileOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "initial_state.png")

	first := &Result{Image: testPNG(t, 10, 10, color.White)}
	if err := first.WriteToFile(path); err != nil {
		t.Fatalf("First write failed: %v", err)
	}

	second := &Result{Image: testPNG(t, 20, 20, color.Black)}
	if err := second.WriteToFile(path); err != nil {
		t.Fatalf("Second write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read artifact: %v", err)
	}
	if !bytes.Equal(data, second.Image) {
		t.Error("Artifact was not overwritten with the second capture")
	}
}

func TestWriteToFileEmptyImage(t *testing.T) {
	result := &Result{TargetURL: "http://localhost:3000"}

	if err := result.WriteToFile(filepath.Join(t.TempDir(), "out.png")); err == nil {
		t.Fatal("Expected error writing empty image, got none")
	}
}

func TestWriteToFolder(t *testing.T) {
	folder := t.TempDir()

	result := &Result{
		TargetURL: "http://localhost:3000/wiki",
		Image:     testPNG(t, 10, 10, color.White),
	}

	filename, err := result.WriteToFolder(folder)
	if err != nil {
		t.Fatalf("WriteToFolder failed: %v", err)
	}

	want := filepath.Join(folder, "http_localhost-3000_wiki.png")
	if filename != want {
		t.Errorf("Expected filename %q, got %q", want, filename)
	}

	if _, err := os.Stat(filename); err != nil {
		t.Fatalf("Artifact not written: %v", err)
	}
}

func TestOrigin(t *testing.T) {
	result := &Result{TargetURL: "http://localhost:3000/wiki/page"}

	origin, err := result.Origin()
	if err != nil {
		t.Fatalf("Origin failed: %v", err)
	}
	if origin != "http://localhost:3000" {
		t.Errorf("Expected origin %q, got %q", "http://localhost:3000", origin)
	}

	result = &Result{TargetURL: "not a url"}
	if _, err := result.Origin(); err == nil {
		t.Error("Expected error for target without origin, got none")
	}
}

func TestImprint(t *testing.T) {
	original := testPNG(t, 200, 100, color.White)

	stamped, err := Image(original).Imprint("http://localhost:3000")
	if err != nil {
		t.Fatalf("Imprint failed: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(stamped))
	if err != nil {
		t.Fatalf("Imprinted image is not a valid PNG: %v", err)
	}

	if img.Bounds().Dx() != 200 {
		t.Errorf("Expected width 200, got %d", img.Bounds().Dx())
	}
	if img.Bounds().Dy() <= 100 {
		t.Errorf("Expected caption bar below original content, got height %d", img.Bounds().Dy())
	}
}
