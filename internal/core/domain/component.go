package domain

type Device struct {
	Id           string
	FrameId      string // topic segment of the frame, empty for the bridge
	Name         string
	Version      string
	Model        string
	Manufacturer string
	ViaDevice    string
}

type GenericSensor struct {
	Device            Device
	Id                string
	SensorType        string
	Name              string
	UniqueId          string
	UnitOfMeasurement string
	StateClass        string
	DeviceClass       string // connectivity, nil
	EntityCategory    string // diagnostic, config, nil
	EnabledByDefault  *bool
	Icon              string
}

type GenericLight struct {
	Device          Device
	Id              string
	Name            string
	UniqueId        string
	Icon            string
	BrightnessScale uint
}

type GenericButton struct {
	Device         Device
	Id             string
	Name           string
	UniqueId       string
	Icon           string
	EntityCategory string
}
