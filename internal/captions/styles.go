package captions

import "strings"

// Style names accepted by the caption burn step.
const (
	StyleDefault = "default"
	StyleHormozi = "hormozi"
	StyleCapcut  = "capcut"
	StyleMinimal = "minimal"
)

// force_style overrides handed to the ffmpeg subtitles filter. The
// default style leaves the renderer's own styling untouched.
var styleOverrides = map[string]string{
	StyleDefault: "",
	StyleHormozi: "FontName=Arial Black,FontSize=22,PrimaryColour=&H0000FFFF,OutlineColour=&H00000000,Outline=3,Bold=1,Alignment=2,MarginV=60",
	StyleCapcut:  "FontName=Arial,FontSize=20,PrimaryColour=&H00FFFFFF,BackColour=&H80000000,BorderStyle=4,Alignment=2,MarginV=50",
	StyleMinimal: "FontName=Helvetica,FontSize=16,PrimaryColour=&H00FFFFFF,Outline=1,Alignment=2,MarginV=40",
}

// StyleOverride returns the force_style string for a named caption
// style. Unknown style names fall back to the default styling.
func StyleOverride(style string) string {
	if override, ok := styleOverrides[strings.ToLower(strings.TrimSpace(style))]; ok {
		return override
	}
	return styleOverrides[StyleDefault]
}
