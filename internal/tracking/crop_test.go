package tracking

import (
	"strings"
	"testing"
)

func assertValidTransform(t *testing.T, tr CropTransform, srcW, srcH int) {
	t.Helper()
	if tr.CropWidth%2 != 0 || tr.CropHeight%2 != 0 {
		t.Fatalf("crop dimensions must be even, got %dx%d", tr.CropWidth, tr.CropHeight)
	}
	if tr.CropWidth > srcW || tr.CropHeight > srcH {
		t.Fatalf("crop %dx%d exceeds source %dx%d", tr.CropWidth, tr.CropHeight, srcW, srcH)
	}
	if tr.XOffset < 0 || tr.XOffset+tr.CropWidth > srcW {
		t.Fatalf("x offset %d out of range for crop %d in source %d", tr.XOffset, tr.CropWidth, srcW)
	}
	if tr.YOffset < 0 || tr.YOffset+tr.CropHeight > srcH {
		t.Fatalf("y offset %d out of range for crop %d in source %d", tr.YOffset, tr.CropHeight, srcH)
	}
}

func TestCenterCrop_Dimensions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		srcW, srcH int
	}{
		{name: "landscape 1080p", srcW: 1920, srcH: 1080},
		{name: "landscape 4k", srcW: 3840, srcH: 2160},
		{name: "already vertical", srcW: 1080, srcH: 1920},
		{name: "square", srcW: 1000, srcH: 1000},
		{name: "near square", srcW: 1001, srcH: 1000},
		{name: "odd dimensions", srcW: 1919, srcH: 1079},
		{name: "tiny", srcW: 10, srcH: 10},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tr := CenterCrop(tc.srcW, tc.srcH, DefaultOutputWidth, DefaultOutputHeight)
			assertValidTransform(t, tr, tc.srcW, tc.srcH)
			if tr.OutputWidth != 1080 || tr.OutputHeight != 1920 {
				t.Fatalf("unexpected output size %dx%d", tr.OutputWidth, tr.OutputHeight)
			}
		})
	}
}

func TestCenterCrop_WideSourceCropsWidth(t *testing.T) {
	t.Parallel()

	tr := CenterCrop(1920, 1080, 1080, 1920)
	// round(1080 * 9/16) = 608 (even already)
	if tr.CropWidth != 608 || tr.CropHeight != 1080 {
		t.Fatalf("expected 608x1080 crop, got %dx%d", tr.CropWidth, tr.CropHeight)
	}
	if tr.XOffset != (1920-608)/2 || tr.YOffset != 0 {
		t.Fatalf("expected centered offsets, got (%d,%d)", tr.XOffset, tr.YOffset)
	}
}

func TestSmartCrop_FollowsMeanPosition(t *testing.T) {
	t.Parallel()

	// Subject far right: offset pushes toward the right edge but stays
	// inside the frame.
	tr := SmartCrop(1920, 1080, 1080, 1920, []Point{{X: 0.95, Y: 0.5}})
	assertValidTransform(t, tr, 1920, 1080)
	if tr.XOffset != 1920-tr.CropWidth {
		t.Fatalf("expected crop clamped to right edge, got offset %d", tr.XOffset)
	}

	// Subject far left clamps to zero.
	tr = SmartCrop(1920, 1080, 1080, 1920, []Point{{X: 0.01, Y: 0.5}})
	assertValidTransform(t, tr, 1920, 1080)
	if tr.XOffset != 0 {
		t.Fatalf("expected crop clamped to left edge, got offset %d", tr.XOffset)
	}
}

func TestSmartCrop_EmptyTrajectoryMatchesCenterCrop(t *testing.T) {
	t.Parallel()

	smart := SmartCrop(1920, 1080, 1080, 1920, nil)
	center := CenterCrop(1920, 1080, 1080, 1920)
	if smart != center {
		t.Fatalf("empty trajectory should center: smart=%+v center=%+v", smart, center)
	}
}

func TestFilterSpec(t *testing.T) {
	t.Parallel()

	tr := CropTransform{CropWidth: 608, CropHeight: 1080, XOffset: 656, YOffset: 0, OutputWidth: 1080, OutputHeight: 1920}
	if got := tr.FilterSpec(); got != "crop=608:1080:656:0,scale=1080:1920" {
		t.Fatalf("unexpected filter spec %q", got)
	}
}

func TestBlurredFilterSpec(t *testing.T) {
	t.Parallel()

	spec := BlurredFilterSpec(1080, 1920)
	for _, want := range []string{"force_original_aspect_ratio=increase", "force_original_aspect_ratio=decrease", "boxblur", "overlay=(W-w)/2:(H-h)/2"} {
		if !strings.Contains(spec, want) {
			t.Fatalf("blurred filter missing %q:\n%s", want, spec)
		}
	}
}
