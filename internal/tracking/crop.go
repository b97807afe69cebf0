package tracking

import (
	"fmt"
	"math"
)

// Default output resolution for 9:16 shorts.
const (
	DefaultOutputWidth  = 1080
	DefaultOutputHeight = 1920
)

// CropTransform describes a deterministic crop-then-scale operation.
// Crop dimensions are always even (encoder requirement) and the crop
// window always lies fully inside the source frame.
type CropTransform struct {
	CropWidth    int
	CropHeight   int
	XOffset      int
	YOffset      int
	OutputWidth  int
	OutputHeight int
}

// FilterSpec renders the transform as an ffmpeg crop+scale chain.
func (t CropTransform) FilterSpec() string {
	return fmt.Sprintf("crop=%d:%d:%d:%d,scale=%d:%d",
		t.CropWidth, t.CropHeight, t.XOffset, t.YOffset, t.OutputWidth, t.OutputHeight)
}

// cropDimensions computes the largest crop window of the target aspect
// ratio that fits the source, with the low bit truncated on both axes.
func cropDimensions(srcW, srcH, outW, outH int) (int, int) {
	targetRatio := float64(outW) / float64(outH)
	sourceRatio := float64(srcW) / float64(srcH)

	var cropW, cropH int
	if sourceRatio > targetRatio {
		// Source is comparatively wider: full height, narrowed width.
		cropH = srcH
		cropW = int(math.Round(float64(srcH) * targetRatio))
	} else {
		cropW = srcW
		cropH = int(math.Round(float64(srcW) / targetRatio))
	}
	cropW -= cropW % 2
	cropH -= cropH % 2
	if cropW > srcW {
		cropW = srcW - srcW%2
	}
	if cropH > srcH {
		cropH = srcH - srcH%2
	}
	return cropW, cropH
}

// CenterCrop builds a transform that crops the center of the source to
// the target aspect ratio.
func CenterCrop(srcW, srcH, outW, outH int) CropTransform {
	cropW, cropH := cropDimensions(srcW, srcH, outW, outH)
	return CropTransform{
		CropWidth:    cropW,
		CropHeight:   cropH,
		XOffset:      (srcW - cropW) / 2,
		YOffset:      (srcH - cropH) / 2,
		OutputWidth:  outW,
		OutputHeight: outH,
	}
}

// SmartCrop aims the crop window at the mean of the smoothed subject
// trajectory. A single static window is used rather than per-frame
// panning; an empty trajectory centers the window.
func SmartCrop(srcW, srcH, outW, outH int, trajectory []Point) CropTransform {
	cropW, cropH := cropDimensions(srcW, srcH, outW, outH)
	mean := MeanPosition(trajectory)

	xOffset := int(math.Round(mean.X*float64(srcW) - float64(cropW)/2))
	yOffset := int(math.Round(mean.Y*float64(srcH) - float64(cropH)/2))
	xOffset = clampInt(xOffset, 0, srcW-cropW)
	yOffset = clampInt(yOffset, 0, srcH-cropH)

	return CropTransform{
		CropWidth:    cropW,
		CropHeight:   cropH,
		XOffset:      xOffset,
		YOffset:      yOffset,
		OutputWidth:  outW,
		OutputHeight: outH,
	}
}

// BlurredFilterSpec composes two layers: the source cover-scaled and
// cropped to the full target frame with a heavy blur behind, and the
// source fit-scaled (whole frame preserved) centered on top. Nothing
// of the original frame is cropped away.
func BlurredFilterSpec(outW, outH int) string {
	return fmt.Sprintf(
		"[0:v]scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,boxblur=20:5[bg];"+
			"[0:v]scale=%d:%d:force_original_aspect_ratio=decrease[fg];"+
			"[bg][fg]overlay=(W-w)/2:(H-h)/2",
		outW, outH, outW, outH, outW, outH)
}

func clampInt(x, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
