package frameo

import (
	"fmt"
	"strconv"

	"github.com/valyala/fasttemplate"
)

const (
	CMD_POWER_KEY     = "input keyevent 26"
	CMD_START_FRAMEO  = "am start net.frameo.frame/.MainActivity"
	CMD_START_IMMICH  = "am start com.immichframe.immichframe/.MainActivity"
	CMD_OPEN_SETTINGS = "am start -a android.settings.SETTINGS"
	cmdBrightnessTmpl = "settings put system screen_brightness {brightness}"
	cmdSwipeTmpl      = "input swipe {x1} {y1} {x2} {y2}"
	cmdTapTmpl        = "input tap {x} {y}"
	templateStartTag  = "{"
	templateEndTag    = "}"
)

var (
	brightnessTemplate = fasttemplate.New(cmdBrightnessTmpl, templateStartTag, templateEndTag)
	swipeTemplate      = fasttemplate.New(cmdSwipeTmpl, templateStartTag, templateEndTag)
	tapTemplate        = fasttemplate.New(cmdTapTmpl, templateStartTag, templateEndTag)
)

func BrightnessCommand(brightness uint8) string {
	return brightnessTemplate.ExecuteString(map[string]any{
		"brightness": strconv.Itoa(int(brightness)),
	})
}

func swipeCommand(x1, y1, x2, y2 int) string {
	return swipeTemplate.ExecuteString(map[string]any{
		"x1": strconv.Itoa(x1),
		"y1": strconv.Itoa(y1),
		"x2": strconv.Itoa(x2),
		"y2": strconv.Itoa(y2),
	})
}

func tapCommand(x, y int) string {
	return tapTemplate.ExecuteString(map[string]any{
		"x": strconv.Itoa(x),
		"y": strconv.Itoa(y),
	})
}

type Gesture string

const (
	GestureSwipeLeft  Gesture = "swipe_left"  // next photo in Frameo
	GestureSwipeRight Gesture = "swipe_right" // previous photo in Frameo
	GestureTapLeft    Gesture = "tap_left"    // previous in ImmichFrame
	GestureTapCenter  Gesture = "tap_center"  // pause in ImmichFrame
	GestureTapRight   Gesture = "tap_right"   // next in ImmichFrame
)

// GestureCommand builds the input command for a gesture on a screen of the
// given size. Swipes run slightly below the vertical center; taps split the
// screen in thirds.
func GestureCommand(gesture Gesture, res Resolution) (string, error) {
	swipeY := res.Height/2 + res.Height/8
	swipeStartX := int(float64(res.Width) * 0.625)
	swipeEndX := int(float64(res.Width) * 0.078)

	tapY := res.Height / 2

	switch gesture {
	case GestureSwipeLeft:
		return swipeCommand(swipeStartX, swipeY, swipeEndX, swipeY), nil
	case GestureSwipeRight:
		return swipeCommand(swipeEndX, swipeY, swipeStartX, swipeY), nil
	case GestureTapLeft:
		return tapCommand(res.Width/6, tapY), nil
	case GestureTapCenter:
		return tapCommand(res.Width/2, tapY), nil
	case GestureTapRight:
		return tapCommand(int(float64(res.Width)*5/6), tapY), nil
	}
	return "", fmt.Errorf("unknown gesture %q", gesture)
}
