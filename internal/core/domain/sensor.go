package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/carlmjohnson/versioninfo"
	"github.com/samber/lo"
)

const (
	SENSOR_ID_BRIDGE_STATE    = "bridge"
	SENSOR_ID_CONNECTIVITY    = "connectivity"
	SENSOR_ID_IP_ADDRESS      = "ip_address"
	SENSOR_ID_RESOLUTION      = "screen_resolution"
	LIGHT_ID_SCREEN           = "screen"
	DEVICE_CLASS_CONNECTIVITY = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC   = "diagnostic"
	ENTITY_CLASS_CONFIG       = "config"
	SENSOR_TYPE_SENSOR        = "sensor"
	SENSOR_TYPE_BINARY        = "binary_sensor"
	BRIGHTNESS_SCALE          = 255
)

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("frameo_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "ACasal",
		Model:        "Frameo2MQTT",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("Frameo2MQTT %s", md5HashShort(baseTopic)),
	}
}

func FrameHADevice(frame FrameDevice) Device {
	name := frame.Name
	if name == "" {
		name = fmt.Sprintf("Frameo %s", frame.Id)
	}
	return Device{
		Id:           fmt.Sprintf("frameo_%s", md5HashShort(frame.Id)),
		FrameId:      frame.Id,
		Manufacturer: "Frameo",
		Model:        fmt.Sprintf("Frame (%s)", frame.Connection.Kind),
		Name:         name,
	}
}

// IdDevice strips a device down to its identifiers; only the first
// component of a device needs to carry the full description.
func IdDevice(device Device) Device {
	return Device{
		Id:      device.Id,
		FrameId: device.FrameId,
		Name:    device.Name,
	}
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {
	return []GenericSensor{{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	}}
}

func FrameLights(frameDevice Device) []GenericLight {
	return []GenericLight{{
		Device:          frameDevice,
		Id:              LIGHT_ID_SCREEN,
		Name:            "Screen",
		Icon:            "mdi:tablet",
		BrightnessScale: BRIGHTNESS_SCALE,
		UniqueId:        uniqueId(frameDevice.Id, LIGHT_ID_SCREEN),
	}}
}

func FrameSensors(frameDevice Device, trackIPAddress bool) []GenericSensor {

	var sensors []GenericSensor

	// Device link state
	sensors = append(sensors, GenericSensor{
		Device:         frameDevice,
		Id:             SENSOR_ID_CONNECTIVITY,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "ADB connection",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(frameDevice.Id, SENSOR_ID_CONNECTIVITY),
	})

	sensors = append(sensors, GenericSensor{
		Device:         frameDevice,
		Id:             SENSOR_ID_RESOLUTION,
		SensorType:     SENSOR_TYPE_SENSOR,
		Name:           "Screen resolution",
		Icon:           "mdi:monitor-screenshot",
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(frameDevice.Id, SENSOR_ID_RESOLUTION),
	})

	if trackIPAddress {
		sensors = append(sensors, GenericSensor{
			Device:         frameDevice,
			Id:             SENSOR_ID_IP_ADDRESS,
			SensorType:     SENSOR_TYPE_SENSOR,
			Name:           "IP address",
			Icon:           "mdi:ip-network",
			EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
			UniqueId:       uniqueId(frameDevice.Id, SENSOR_ID_IP_ADDRESS),
		})
	}

	return sensors
}

func FrameButtons(frameDevice Device) []GenericButton {
	return lo.Map(Buttons, func(b ButtonDescription, _ int) GenericButton {
		return GenericButton{
			Device:         frameDevice,
			Id:             b.Key,
			Name:           b.Name,
			Icon:           b.Icon,
			EntityCategory: b.EntityCategory,
			UniqueId:       uniqueId(frameDevice.Id, b.Key),
		}
	})
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}
