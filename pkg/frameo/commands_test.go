package frameo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGestureCommands(t *testing.T) {

	assert := assert.New(t)
	res := Resolution{Width: 1280, Height: 800}

	cmd, err := GestureCommand(GestureSwipeLeft, res)
	assert.NoError(err)
	assert.Equal("input swipe 800 500 99 500", cmd)

	cmd, err = GestureCommand(GestureSwipeRight, res)
	assert.NoError(err)
	assert.Equal("input swipe 99 500 800 500", cmd)

	cmd, err = GestureCommand(GestureTapLeft, res)
	assert.NoError(err)
	assert.Equal("input tap 213 400", cmd)

	cmd, err = GestureCommand(GestureTapCenter, res)
	assert.NoError(err)
	assert.Equal("input tap 640 400", cmd)

	cmd, err = GestureCommand(GestureTapRight, res)
	assert.NoError(err)
	assert.Equal("input tap 1066 400", cmd)

	_, err = GestureCommand(Gesture("wiggle"), res)
	assert.Error(err)
}

func TestBrightnessCommand(t *testing.T) {
	assert.Equal(t, "settings put system screen_brightness 0", BrightnessCommand(0))
	assert.Equal(t, "settings put system screen_brightness 255", BrightnessCommand(255))
}
