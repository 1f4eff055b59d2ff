package domain

import "fmt"

type SensorUpdateEventMixIn struct {
	Id    string
	Frame string
}

type SensorUpdateEvent interface {
	SensorUpdateEvent() string
	SensorId() string
	FrameId() string
}

func (e SensorUpdateEventMixIn) SensorUpdateEvent() string {
	return fmt.Sprintf("%T", e)
}

func (e SensorUpdateEventMixIn) SensorId() string {
	return e.Id
}

func (e SensorUpdateEventMixIn) FrameId() string {
	return e.Frame
}

type BinarySensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value bool
}

type TextSensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value string
}

type BridgeStateUpdateEvent struct {
	SensorUpdateEventMixIn
	Value bool
}

type LightStateUpdateEvent struct {
	SensorUpdateEventMixIn
	On         bool
	Brightness uint8
}

type AvailabilityUpdateEvent struct {
	SensorUpdateEventMixIn
	Available bool
}

// CommandResultEvent reports the outcome of an ad-hoc shell command.
type CommandResultEvent struct {
	SensorUpdateEventMixIn
	RequestId string
	Command   string
	Result    string
	Success   bool
}
