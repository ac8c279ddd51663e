package captcha

import (
	"bytes"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/fengxsong/douyin-crawler/pkg/errors"
	"github.com/fengxsong/douyin-crawler/pkg/logger"
)

// Challenge is one slider puzzle: the background with a gap punched out,
// and the puzzle piece that fills it. Both are raw encoded image buffers.
type Challenge struct {
	Background []byte
	Gap        []byte
}

// Solver locates the gap offset in a slider captcha.
type Solver struct {
	artifactPath string
	logger       logger.Logger
}

// NewSolver creates a solver. artifactPath, if non-empty, receives an
// annotated copy of the background with the matched region boxed,
// overwritten on every solve. It exists for operator inspection only.
func NewSolver(artifactPath string, log logger.Logger) *Solver {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Solver{artifactPath: artifactPath, logger: log}
}

// LocateGap returns the horizontal pixel offset of the gap in the
// background. The gap image is cropped to its non-uniform bounding box,
// both images are reduced to edge maps, and the best normalized
// cross-correlation match wins.
func (s *Solver) LocateGap(challenge Challenge) (int, error) {
	bg, err := imaging.Decode(bytes.NewReader(challenge.Background))
	if err != nil {
		return 0, errors.Image("failed to decode background image", err)
	}
	gap, err := imaging.Decode(bytes.NewReader(challenge.Gap))
	if err != nil {
		return 0, errors.Image("failed to decode gap image", err)
	}

	piece, err := cropNonUniform(gap)
	if err != nil {
		return 0, err
	}

	tpl := sobel(toGray(piece))
	target := sobel(toGray(bg))
	if tpl.Bounds().Dx() > target.Bounds().Dx() || tpl.Bounds().Dy() > target.Bounds().Dy() {
		return 0, errors.Image("gap image larger than background", nil)
	}

	x, y, score := matchTemplate(tpl, target)
	s.logger.DebugWithFields("matched slider gap", map[string]interface{}{
		"x":     x,
		"y":     y,
		"score": score,
	})

	if s.artifactPath != "" {
		annotated := annotate(bg, image.Rect(x, y, x+tpl.Bounds().Dx(), y+tpl.Bounds().Dy()))
		if err := imaging.Save(annotated, s.artifactPath); err != nil {
			s.logger.WithError(err).Warn("failed to write captcha match artifact")
		}
	}
	return x, nil
}

// cropNonUniform trims the uniform borders of the gap image: a pixel
// belongs to the piece when its color channels carry more than one
// distinct value.
func cropNonUniform(img image.Image) (image.Image, error) {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X, b.Min.Y

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			r8, g8, b8 := uint8(r>>8), uint8(g>>8), uint8(bl>>8)
			if r8 == g8 && g8 == b8 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if maxX <= minX || maxY <= minY {
		return nil, errors.Image("degenerate gap bounding box", nil)
	}
	return imaging.Crop(img, image.Rect(minX, minY, maxX+1, maxY+1)), nil
}

// toGray converts an image to single-channel intensity.
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x-b.Min.X, y-b.Min.Y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

// sobel computes the gradient magnitude of a grayscale image, clamped to
// 8 bits. Border pixels stay zero.
func sobel(src *image.Gray) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	at := func(x, y int) int {
		return int(src.GrayAt(x, y).Y)
	}
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1) +
				at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			mag := math.Sqrt(float64(gx*gx + gy*gy))
			if mag > 255 {
				mag = 255
			}
			dst.SetGray(x, y, color.Gray{Y: uint8(mag)})
		}
	}
	return dst
}

// matchTemplate slides tpl over target and returns the position with the
// highest zero-mean normalized cross-correlation score.
func matchTemplate(tpl, target *image.Gray) (bestX, bestY int, bestScore float64) {
	tw, th := tpl.Bounds().Dx(), tpl.Bounds().Dy()
	w, h := target.Bounds().Dx(), target.Bounds().Dy()

	n := float64(tw * th)
	var tplSum, tplSqSum float64
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			v := float64(tpl.GrayAt(x, y).Y)
			tplSum += v
			tplSqSum += v * v
		}
	}
	tplMean := tplSum / n
	tplVar := tplSqSum - n*tplMean*tplMean

	bestScore = math.Inf(-1)
	for y := 0; y <= h-th; y++ {
		for x := 0; x <= w-tw; x++ {
			var winSum, winSqSum, cross float64
			for ty := 0; ty < th; ty++ {
				for tx := 0; tx < tw; tx++ {
					wv := float64(target.GrayAt(x+tx, y+ty).Y)
					tv := float64(tpl.GrayAt(tx, ty).Y)
					winSum += wv
					winSqSum += wv * wv
					cross += wv * tv
				}
			}
			winMean := winSum / n
			winVar := winSqSum - n*winMean*winMean
			denom := math.Sqrt(tplVar * winVar)
			if denom == 0 {
				continue
			}
			score := (cross - n*tplMean*winMean) / denom
			if score > bestScore {
				bestScore = score
				bestX, bestY = x, y
			}
		}
	}
	return bestX, bestY, bestScore
}

// annotate draws a red box around the matched region on a copy of the
// background.
func annotate(bg image.Image, box image.Rectangle) *image.NRGBA {
	out := imaging.Clone(bg)
	red := color.NRGBA{R: 255, A: 255}
	for x := box.Min.X; x < box.Max.X; x++ {
		setIfInside(out, x, box.Min.Y, red)
		setIfInside(out, x, box.Max.Y-1, red)
	}
	for y := box.Min.Y; y < box.Max.Y; y++ {
		setIfInside(out, box.Min.X, y, red)
		setIfInside(out, box.Max.X-1, y, red)
	}
	return out
}

func setIfInside(img *image.NRGBA, x, y int, c color.NRGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetNRGBA(x, y, c)
	}
}
