package domain

import (
	"github.com/berfenger/frameo2mqtt/pkg/frameo"

	"github.com/samber/lo"
)

const (
	BUTTON_FRAMEO_NEXT    = "frameo_next"
	BUTTON_FRAMEO_PREV    = "frameo_prev"
	BUTTON_IMMICH_NEXT    = "immich_next"
	BUTTON_IMMICH_PREV    = "immich_prev"
	BUTTON_IMMICH_PAUSE   = "immich_pause"
	BUTTON_START_FRAMEO   = "start_frameo"
	BUTTON_START_IMMICH   = "start_immich"
	BUTTON_OPEN_SETTINGS  = "open_settings"
	BUTTON_START_WIRELESS = "start_wireless"
)

// ButtonDescription tells how a button press reaches the device: a gesture
// (resolution dependent), a fixed shell command, or enabling wireless ADB.
type ButtonDescription struct {
	Key            string
	Name           string
	Icon           string
	Gesture        frameo.Gesture
	Command        string
	Wireless       bool
	EntityCategory string
}

func (b ButtonDescription) IsGesture() bool {
	return b.Gesture != ""
}

var Buttons = []ButtonDescription{
	{Key: BUTTON_FRAMEO_NEXT, Name: "Next photo", Icon: "mdi:arrow-right-bold-box", Gesture: frameo.GestureSwipeLeft},
	{Key: BUTTON_FRAMEO_PREV, Name: "Previous photo", Icon: "mdi:arrow-left-bold-box", Gesture: frameo.GestureSwipeRight},
	{Key: BUTTON_IMMICH_NEXT, Name: "ImmichFrame next", Icon: "mdi:skip-next", Gesture: frameo.GestureTapRight},
	{Key: BUTTON_IMMICH_PREV, Name: "ImmichFrame previous", Icon: "mdi:skip-previous", Gesture: frameo.GestureTapLeft},
	{Key: BUTTON_IMMICH_PAUSE, Name: "ImmichFrame pause", Icon: "mdi:pause", Gesture: frameo.GestureTapCenter},
	{Key: BUTTON_START_FRAMEO, Name: "Start Frameo", Icon: "mdi:image-frame", Command: frameo.CMD_START_FRAMEO},
	{Key: BUTTON_START_IMMICH, Name: "Start ImmichFrame", Icon: "mdi:image-multiple", Command: frameo.CMD_START_IMMICH},
	{Key: BUTTON_OPEN_SETTINGS, Name: "Open settings", Icon: "mdi:cog", Command: frameo.CMD_OPEN_SETTINGS, EntityCategory: ENTITY_CLASS_CONFIG},
	{Key: BUTTON_START_WIRELESS, Name: "Enable wireless ADB", Icon: "mdi:wifi", Wireless: true, EntityCategory: ENTITY_CLASS_CONFIG},
}

func FindButton(key string) (ButtonDescription, bool) {
	return lo.Find(Buttons, func(b ButtonDescription) bool {
		return b.Key == key
	})
}
