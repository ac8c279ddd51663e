package captcha

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fengxsong/douyin-crawler/pkg/errors"
	"github.com/fengxsong/douyin-crawler/pkg/logger"
)

// drawPiece paints a 40x40 puzzle piece with an internal pattern so the
// edge maps have structure to correlate on.
func drawPiece(img *image.NRGBA, x0, y0 int) {
	outer := color.NRGBA{R: 200, G: 100, B: 50, A: 255}
	inner := color.NRGBA{R: 30, G: 60, B: 180, A: 255}
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			c := outer
			if x >= 10 && x < 30 && y >= 10 && y < 30 {
				c = inner
			}
			img.SetNRGBA(x0+x, y0+y, c)
		}
	}
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uniformNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func testChallenge(t *testing.T, featureX int) Challenge {
	t.Helper()
	gray := color.NRGBA{R: 128, G: 128, B: 128, A: 255}

	bg := uniformNRGBA(340, 212, gray)
	drawPiece(bg, featureX, 80)

	gap := uniformNRGBA(68, 68, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	drawPiece(gap, 10, 10)

	return Challenge{
		Background: encodePNG(t, bg),
		Gap:        encodePNG(t, gap),
	}
}

func TestLocateGap(t *testing.T) {
	const featureX = 150
	solver := NewSolver("", logger.NewTestLogger())

	x, err := solver.LocateGap(testChallenge(t, featureX))
	require.NoError(t, err)
	assert.InDelta(t, featureX, x, 2, "matched offset should hit the pasted feature")
}

func TestLocateGapWritesArtifact(t *testing.T) {
	artifact := filepath.Join(t.TempDir(), "match.png")
	solver := NewSolver(artifact, logger.NewTestLogger())

	_, err := solver.LocateGap(testChallenge(t, 200))
	require.NoError(t, err)

	info, err := os.Stat(artifact)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestLocateGapUndecodableBackground(t *testing.T) {
	solver := NewSolver("", logger.NewTestLogger())

	challenge := testChallenge(t, 100)
	challenge.Background = []byte("not an image")

	_, err := solver.LocateGap(challenge)
	require.Error(t, err)
	assert.True(t, errors.IsImage(err))
}

func TestLocateGapDegenerateBoundingBox(t *testing.T) {
	solver := NewSolver("", logger.NewTestLogger())

	// A uniform gap image has no piece to crop out.
	challenge := testChallenge(t, 100)
	challenge.Gap = encodePNG(t, uniformNRGBA(68, 68, color.NRGBA{R: 9, G: 9, B: 9, A: 255}))

	_, err := solver.LocateGap(challenge)
	require.Error(t, err)
	assert.True(t, errors.IsImage(err))
}

func TestCropNonUniform(t *testing.T) {
	img := uniformNRGBA(100, 100, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	drawPiece(img, 20, 30)

	cropped, err := cropNonUniform(img)
	require.NoError(t, err)
	assert.Equal(t, 40, cropped.Bounds().Dx())
	assert.Equal(t, 40, cropped.Bounds().Dy())
}
