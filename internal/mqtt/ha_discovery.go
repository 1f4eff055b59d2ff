package mqtt

import (
	"encoding/json"
	"fmt"

	"github.com/berfenger/frameo2mqtt/internal/core/domain"
)

type HADiscoveryConfig struct {
	Device            HADiscoveryDevice `json:"device"`
	StateTopic        string            `json:"state_topic,omitempty"`
	CommandTopic      string            `json:"command_topic,omitempty"`
	StateClass        string            `json:"state_class,omitempty"`
	DeviceClass       string            `json:"device_class,omitempty"`
	UnitOfMeasurement string            `json:"unit_of_measurement,omitempty"`
	AvTopic           string            `json:"availability_topic,omitempty"`
	Availability      []HAAvailability  `json:"availability,omitempty"`
	AvailabilityMode  string            `json:"availability_mode,omitempty"`
	EntityCategory    string            `json:"entity_category,omitempty"`
	Name              string            `json:"name"`
	UniqueId          string            `json:"unique_id"`
	Platform          string            `json:"platform"`
	EnabledByDefault  *bool             `json:"enabled_by_default,omitempty"`
	PayloadOn         string            `json:"payload_on,omitempty"`
	PayloadOff        string            `json:"payload_off,omitempty"`
	PayloadPress      string            `json:"payload_press,omitempty"`
	Icon              string            `json:"icon,omitempty"`
	Schema            string            `json:"schema,omitempty"`
	Brightness        bool              `json:"brightness,omitempty"`
	BrightnessScale   uint              `json:"brightness_scale,omitempty"`
}

type HAAvailability struct {
	Topic string `json:"topic"`
}

type HADiscoveryDevice struct {
	Id           []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Version      string   `json:"sw_version,omitempty"`
	Model        string   `json:"model,omitempty"`
	Name         string   `json:"name,omitempty"`
	ViaDevice    string   `json:"via_device,omitempty"`
}

type LightStatePayload struct {
	State      string `json:"state"`
	Brightness uint8  `json:"brightness"`
}

type ADBResponsePayload struct {
	RequestId string `json:"request_id"`
	Command   string `json:"command"`
	Result    string `json:"result"`
	Success   bool   `json:"success"`
}

func MarshalLightState(on bool, brightness uint8) (string, error) {
	state := MQTT_LIGHT_STATE_OFF
	if on {
		state = MQTT_LIGHT_STATE_ON
	}
	b, err := json.Marshal(LightStatePayload{State: state, Brightness: brightness})
	return string(b), err
}

func MarshalADBResponse(event domain.CommandResultEvent) (string, error) {
	b, err := json.Marshal(ADBResponsePayload{
		RequestId: event.RequestId,
		Command:   event.Command,
		Result:    event.Result,
		Success:   event.Success,
	})
	return string(b), err
}

func (c *MQTTClient) HADiscoverySensorTopic(sensor domain.GenericSensor) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", c.DiscoveryTopic(), sensor.SensorType, sensor.Device.Id, sensor.Id)
}

func (c *MQTTClient) HADiscoveryLightTopic(light domain.GenericLight) string {
	return fmt.Sprintf("%s/light/%s/%s/config", c.DiscoveryTopic(), light.Device.Id, light.Id)
}

func (c *MQTTClient) HADiscoveryButtonTopic(button domain.GenericButton) string {
	return fmt.Sprintf("%s/button/%s/%s/config", c.DiscoveryTopic(), button.Device.Id, button.Id)
}

func GenericSensorToHADiscoveryMessage(client *MQTTClient, sensor domain.GenericSensor) HADiscoveryConfig {
	dev := device(sensor.Device)
	var topic string
	switch {
	case sensor.Id == domain.SENSOR_ID_BRIDGE_STATE:
		topic = client.BridgeStateTopic()
	case sensor.SensorType == domain.SENSOR_TYPE_SENSOR:
		topic = client.SensorStateTopic(sensor.Device.FrameId, sensor.Id)
	case sensor.SensorType == domain.SENSOR_TYPE_BINARY:
		topic = client.BinarySensorStateTopic(sensor.Device.FrameId, sensor.Id)
	}
	disConfig := HADiscoveryConfig{
		Device:            dev,
		StateTopic:        topic,
		StateClass:        sensor.StateClass,
		DeviceClass:       sensor.DeviceClass,
		UnitOfMeasurement: sensor.UnitOfMeasurement,
		EntityCategory:    sensor.EntityCategory,
		Name:              sensor.Name,
		UniqueId:          sensor.UniqueId,
		Icon:              sensor.Icon,
		EnabledByDefault:  sensor.EnabledByDefault,
		Platform:          "mqtt",
	}
	switch {
	case sensor.Id == domain.SENSOR_ID_BRIDGE_STATE:
		disConfig.AvTopic = client.BridgeStateTopic()
		disConfig.PayloadOn = MQTT_PAYLOAD_ONLINE
		disConfig.PayloadOff = MQTT_PAYLOAD_OFFLINE
	case sensor.Id == domain.SENSOR_ID_CONNECTIVITY:
		// connectivity must stay available to report the frame as offline
		disConfig.AvTopic = client.BridgeStateTopic()
		disConfig.PayloadOn = MQTT_PAYLOAD_ON
		disConfig.PayloadOff = MQTT_PAYLOAD_OFF
	case sensor.SensorType == domain.SENSOR_TYPE_BINARY:
		frameAvailability(client, sensor.Device.FrameId, &disConfig)
		disConfig.PayloadOn = MQTT_PAYLOAD_ON
		disConfig.PayloadOff = MQTT_PAYLOAD_OFF
	default:
		frameAvailability(client, sensor.Device.FrameId, &disConfig)
	}
	return disConfig
}

func GenericLightToHADiscoveryMessage(client *MQTTClient, light domain.GenericLight) HADiscoveryConfig {
	disConfig := HADiscoveryConfig{
		Device:          device(light.Device),
		StateTopic:      client.LightStateTopic(light.Device.FrameId),
		CommandTopic:    client.LightCommandTopic(light.Device.FrameId),
		Name:            light.Name,
		UniqueId:        light.UniqueId,
		Icon:            light.Icon,
		Platform:        "mqtt",
		Schema:          "json",
		Brightness:      true,
		BrightnessScale: light.BrightnessScale,
	}
	frameAvailability(client, light.Device.FrameId, &disConfig)
	return disConfig
}

func GenericButtonToHADiscoveryMessage(client *MQTTClient, button domain.GenericButton) HADiscoveryConfig {
	disConfig := HADiscoveryConfig{
		Device:         device(button.Device),
		CommandTopic:   client.ButtonCommandTopic(button.Device.FrameId, button.Id),
		Name:           button.Name,
		UniqueId:       button.UniqueId,
		Icon:           button.Icon,
		EntityCategory: button.EntityCategory,
		Platform:       "mqtt",
		PayloadPress:   MQTT_PAYLOAD_PRESS,
	}
	frameAvailability(client, button.Device.FrameId, &disConfig)
	return disConfig
}

// frameAvailability makes an entity available only while both the bridge is
// online and the frame is connected.
func frameAvailability(client *MQTTClient, frameId string, disConfig *HADiscoveryConfig) {
	disConfig.Availability = []HAAvailability{
		{Topic: client.BridgeStateTopic()},
		{Topic: client.AvailabilityTopic(frameId)},
	}
	disConfig.AvailabilityMode = "all"
}

func device(d domain.Device) HADiscoveryDevice {
	return HADiscoveryDevice{
		Id:           []string{d.Id},
		Manufacturer: d.Manufacturer,
		Version:      d.Version,
		Model:        d.Model,
		Name:         d.Name,
		ViaDevice:    d.ViaDevice,
	}
}
