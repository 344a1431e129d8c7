package testsupport

import (
	"image"
	"image/color"
	"sync"
)

// FakeGrabber returns a small solid image instead of reading the display.
type FakeGrabber struct {
	mu    sync.Mutex
	Err   error
	Grabs int
}

func (g *FakeGrabber) Grab(int) (image.Image, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Grabs++
	if g.Err != nil {
		return nil, g.Err
	}
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := range 4 {
		for y := range 4 {
			img.Set(x, y, color.RGBA{R: 0x1b, B: 0x26, A: 0xff})
		}
	}
	return img, nil
}
