package frameo

import (
	"context"
	"regexp"
	"strconv"

	"go.uber.org/zap"
)

const (
	// grep exits 1 on no match and adb shell passes that through
	displayMetricsCommand = "dumpsys display | grep -E 'mViewport|mCurrentDisplayRect' || true"
	wmSizeCommand         = "wm size"
)

var (
	viewportRegexp    = regexp.MustCompile(`deviceWidth=(\d+),\s*deviceHeight=(\d+)`)
	displayRectRegexp = regexp.MustCompile(`Rect\(\d+,\s*\d+\s*-\s*(\d+),\s*(\d+)\)`)
	wmSizeRegexp      = regexp.MustCompile(`(\d+)x(\d+)`)
)

// DetectResolution asks the device for its current screen size, which
// follows the orientation. It never retries; false means the caller should
// keep its fallback.
func DetectResolution(ctx context.Context, shell ShellRunner, logger *zap.Logger) (Resolution, bool) {
	output, err := shell.Shell(ctx, displayMetricsCommand)
	if err != nil {
		logger.Warn("failed to detect screen resolution", zap.Error(err))
		return Resolution{}, false
	}
	if res, ok := ParseDisplayResolution(output); ok {
		logger.Debug("detected screen resolution from display metrics", zap.Stringer("resolution", res))
		return res, true
	}

	output, err = shell.Shell(ctx, wmSizeCommand)
	if err != nil {
		logger.Warn("failed to detect screen resolution", zap.Error(err))
		return Resolution{}, false
	}
	if res, ok := ParseWMSize(output); ok {
		logger.Debug("detected screen resolution from wm size", zap.Stringer("resolution", res))
		return res, true
	}
	return Resolution{}, false
}

// ParseDisplayResolution reads the viewport dimensions, falling back to the
// display rectangle.
func ParseDisplayResolution(output string) (Resolution, bool) {
	if m := viewportRegexp.FindStringSubmatch(output); m != nil {
		return toResolution(m[1], m[2])
	}
	if m := displayRectRegexp.FindStringSubmatch(output); m != nil {
		return toResolution(m[1], m[2])
	}
	return Resolution{}, false
}

// ParseWMSize returns the last WxH pair: when an override is active the
// current size is printed after the physical one.
func ParseWMSize(output string) (Resolution, bool) {
	matches := wmSizeRegexp.FindAllStringSubmatch(output, -1)
	if len(matches) == 0 {
		return Resolution{}, false
	}
	last := matches[len(matches)-1]
	return toResolution(last[1], last[2])
}

func toResolution(w, h string) (Resolution, bool) {
	width, err := strconv.Atoi(w)
	if err != nil {
		return Resolution{}, false
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return Resolution{}, false
	}
	if width <= 0 || height <= 0 {
		return Resolution{}, false
	}
	return Resolution{Width: width, Height: height}, true
}
