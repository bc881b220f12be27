package detection

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

var (
	boxColor   = color.RGBA{R: 0, G: 220, B: 80, A: 255}
	labelColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Annotate draws a detection box and label onto a JPEG frame and returns
// the re-encoded JPEG. The box must be in the frame's own coordinate space.
func Annotate(frame []byte, box Box, label string, confidence float64) ([]byte, error) {
	img, err := gocv.IMDecode(frame, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("annotate: decode frame: %w", err)
	}
	defer img.Close()
	if img.Empty() {
		return nil, fmt.Errorf("annotate: empty frame")
	}

	rect := image.Rect(int(box.X1), int(box.Y1), int(box.X2), int(box.Y2))
	gocv.Rectangle(&img, rect, boxColor, 2)

	text := fmt.Sprintf("%s %.0f%%", label, confidence*100)
	origin := image.Pt(int(box.X1), int(box.Y1)-8)
	if origin.Y < 12 {
		origin.Y = int(box.Y1) + 16
	}
	gocv.PutText(&img, text, origin, gocv.FontHersheySimplex, 0.5, labelColor, 1)

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("annotate: encode frame: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
