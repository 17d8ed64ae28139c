package generation

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"sync/atomic"
)

// Fake is an in-process Engine for tests. It renders solid-color JPEGs and
// counts calls. Hooks, when set, replace the default behavior.
type Fake struct {
	EngineName string

	StyleFn func(ctx context.Context, prompt string, count int) ([][]byte, error)
	SlideFn func(ctx context.Context, content string, styleImage []byte, stylePrompt string) ([]byte, error)

	styleCalls atomic.Int64
	slideCalls atomic.Int64

	mu          sync.Mutex
	lastContent string
}

// NewFake returns a fake registered under name.
func NewFake(name string) *Fake {
	return &Fake{EngineName: name}
}

// Name implements Engine.
func (f *Fake) Name() string { return f.EngineName }

// Available implements Engine.
func (f *Fake) Available() bool { return true }

// GenerateStyleImages implements Engine.
func (f *Fake) GenerateStyleImages(ctx context.Context, prompt string, count int) ([][]byte, error) {
	f.styleCalls.Add(1)
	if f.StyleFn != nil {
		return f.StyleFn(ctx, prompt, count)
	}
	out := make([][]byte, 0, count)
	for i := range count {
		out = append(out, SolidJPEG(64, 36, color.RGBA{R: uint8(40 * i), G: 120, B: 200, A: 255}))
	}
	return out, nil
}

// GenerateSlideImage implements Engine.
func (f *Fake) GenerateSlideImage(ctx context.Context, content string, styleImage []byte, stylePrompt string) ([]byte, error) {
	f.slideCalls.Add(1)
	f.mu.Lock()
	f.lastContent = content
	f.mu.Unlock()
	if f.SlideFn != nil {
		return f.SlideFn(ctx, content, styleImage, stylePrompt)
	}
	return SolidJPEG(640, 360, color.RGBA{R: 200, G: 80, B: 40, A: 255}), nil
}

// StyleCalls returns how many times GenerateStyleImages ran.
func (f *Fake) StyleCalls() int { return int(f.styleCalls.Load()) }

// SlideCalls returns how many times GenerateSlideImage ran.
func (f *Fake) SlideCalls() int { return int(f.slideCalls.Load()) }

// LastContent returns the content of the most recent slide request.
func (f *Fake) LastContent() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastContent
}

// SolidJPEG encodes a w×h image of one color.
func SolidJPEG(w, h int, c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
	return buf.Bytes()
}
