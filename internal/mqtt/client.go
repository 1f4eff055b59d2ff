package mqtt

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/berfenger/frameo2mqtt/internal/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const (
	MQTT_PAYLOAD_ONLINE  = "online"
	MQTT_PAYLOAD_OFFLINE = "offline"
	MQTT_PAYLOAD_ON      = "on"
	MQTT_PAYLOAD_OFF     = "off"
	MQTT_PAYLOAD_PRESS   = "PRESS"

	MQTT_LIGHT_STATE_ON  = "ON"
	MQTT_LIGHT_STATE_OFF = "OFF"

	COMMAND_LIGHT  = "light"
	COMMAND_BUTTON = "button"
	COMMAND_ADB    = "adb"
)

var (
	ErrInvalidCommand = errors.New("invalid command")
	ErrInvalidPayload = errors.New("invalid payload")
)

func OptsFromConfig(cfg *config.Config) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Host, cfg.MQTT.Port))
	opts.SetClientID(fmt.Sprintf("frameo2mqtt_%s", strings.Split(uuid.NewString(), "-")[0]))
	if cfg.MQTT.Username != "" && cfg.MQTT.Password != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}
	opts.WillEnabled = true
	opts.WillPayload = []byte(MQTT_PAYLOAD_OFFLINE)
	opts.WillRetained = true
	opts.WillTopic = bridgeStateTopic(cfg.MQTT.BaseTopic)
	opts.WillQos = 0

	return opts
}

func CreateMQTTClient(cfg *config.Config, opts *mqtt.ClientOptions, onConnectHandler func(client mqtt.Client),
	onConnectionLostHandler func(mqtt.Client, error)) *MQTTClient {
	if onConnectHandler != nil {
		opts.OnConnect = onConnectHandler
	}
	if onConnectionLostHandler != nil {
		opts.OnConnectionLost = onConnectionLostHandler
	}
	return &MQTTClient{
		client:              mqtt.NewClient(opts),
		cfg:                 cfg.MQTT,
		lightCommandRegexp:  lightCommandExtractor(cfg.MQTT.BaseTopic),
		buttonCommandRegexp: buttonCommandExtractor(cfg.MQTT.BaseTopic),
		adbCommandRegexp:    adbCommandExtractor(cfg.MQTT.BaseTopic),
	}
}

type MQTTClient struct {
	client              mqtt.Client
	cfg                 config.MQTTConfig
	lightCommandRegexp  *regexp.Regexp
	buttonCommandRegexp *regexp.Regexp
	adbCommandRegexp    *regexp.Regexp
}

// ParsedMQTTCommand is a command received on a frame topic. Param holds the
// button key for button presses.
type ParsedMQTTCommand struct {
	DeviceId string
	Command  string
	Param    string
	Payload  string
}

func (c *MQTTClient) baseTopic() string {
	return c.cfg.BaseTopic
}

func (c *MQTTClient) DiscoveryTopic() string {
	if c.cfg.HADiscoveryTopic == "" {
		return "homeassistant"
	}
	return c.cfg.HADiscoveryTopic
}

func (c *MQTTClient) BridgeStateTopic() string {
	return bridgeStateTopic(c.baseTopic())
}

func (c *MQTTClient) AvailabilityTopic(frameId string) string {
	return fmt.Sprintf("%s/%s/availability", c.baseTopic(), frameId)
}

func (c *MQTTClient) SensorStateTopic(frameId, sensorId string) string {
	return fmt.Sprintf("%s/%s/sensor/%s/state", c.baseTopic(), frameId, sensorId)
}

func (c *MQTTClient) BinarySensorStateTopic(frameId, sensorId string) string {
	return fmt.Sprintf("%s/%s/binary_sensor/%s/state", c.baseTopic(), frameId, sensorId)
}

func (c *MQTTClient) LightStateTopic(frameId string) string {
	return fmt.Sprintf("%s/%s/light/state", c.baseTopic(), frameId)
}

func (c *MQTTClient) LightCommandTopic(frameId string) string {
	return fmt.Sprintf("%s/%s/light/set", c.baseTopic(), frameId)
}

func (c *MQTTClient) ButtonCommandTopic(frameId, key string) string {
	return fmt.Sprintf("%s/%s/button/%s/press", c.baseTopic(), frameId, key)
}

func (c *MQTTClient) ADBCommandTopic(frameId string) string {
	return fmt.Sprintf("%s/%s/adb/command", c.baseTopic(), frameId)
}

func (c *MQTTClient) ADBResponseTopic(frameId string) string {
	return fmt.Sprintf("%s/%s/adb/response", c.baseTopic(), frameId)
}

func (c *MQTTClient) ParseMQTTCommand(msg mqtt.Message) (*ParsedMQTTCommand, error) {
	return c.parseCommand(msg.Topic(), msg.Payload())
}

func (c *MQTTClient) parseCommand(topic string, payload []byte) (*ParsedMQTTCommand, error) {
	if matches := c.lightCommandRegexp.FindStringSubmatch(topic); len(matches) == 2 {
		if _, _, err := ParseLightPayload(payload); err != nil {
			return nil, err
		}
		return &ParsedMQTTCommand{
			DeviceId: matches[1],
			Command:  COMMAND_LIGHT,
			Payload:  string(payload),
		}, nil
	}
	if matches := c.buttonCommandRegexp.FindStringSubmatch(topic); len(matches) == 3 {
		return &ParsedMQTTCommand{
			DeviceId: matches[1],
			Command:  COMMAND_BUTTON,
			Param:    matches[2],
			Payload:  string(payload),
		}, nil
	}
	if matches := c.adbCommandRegexp.FindStringSubmatch(topic); len(matches) == 2 {
		command := strings.TrimSpace(string(payload))
		if command == "" {
			return nil, fmt.Errorf("%w: empty adb command", ErrInvalidPayload)
		}
		return &ParsedMQTTCommand{
			DeviceId: matches[1],
			Command:  COMMAND_ADB,
			Payload:  command,
		}, nil
	}
	return nil, ErrInvalidCommand
}

// ParseLightPayload reads a JSON schema light command:
// {"state": "ON"|"OFF", "brightness": 0..255}. Brightness is optional.
func ParseLightPayload(payload []byte) (bool, *uint8, error) {
	if !gjson.ValidBytes(payload) {
		return false, nil, fmt.Errorf("%w: not json", ErrInvalidPayload)
	}
	result := gjson.ParseBytes(payload)
	state := result.Get("state")
	if !state.Exists() {
		return false, nil, fmt.Errorf("%w: missing state", ErrInvalidPayload)
	}
	var on bool
	switch strings.ToUpper(state.String()) {
	case MQTT_LIGHT_STATE_ON:
		on = true
	case MQTT_LIGHT_STATE_OFF:
		on = false
	default:
		return false, nil, fmt.Errorf("%w: state %q", ErrInvalidPayload, state.String())
	}
	brightness := result.Get("brightness")
	if !brightness.Exists() {
		return on, nil, nil
	}
	value := brightness.Int()
	if brightness.Type != gjson.Number || value < 0 || value > 255 {
		return false, nil, fmt.Errorf("%w: brightness %s", ErrInvalidPayload, brightness.Raw)
	}
	b := uint8(value)
	return on, &b, nil
}

func (c *MQTTClient) Publish(topic string, payload any, qos byte, retain bool, continuation func(error), timeout time.Duration) {
	token := c.client.Publish(topic, qos, retain, payload)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT publish timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Subscribe(topic string, qos byte, handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	token := c.client.Subscribe(topic, qos, handler)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT subscribe timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) SubscribeToCommandTopic(handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	c.Subscribe(c.commandTopic(), 1, handler, continuation, timeout)
}

func (c *MQTTClient) Connect(continuation func(error), timeout time.Duration) {
	token := c.client.Connect()
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT connect timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Disconnect(timeout time.Duration) {
	c.client.Disconnect(uint(timeout.Milliseconds()))
}

func (c *MQTTClient) IsConnected() bool {
	return c.client.IsConnected()
}

func (c *MQTTClient) commandTopic() string {
	return fmt.Sprintf("%s/#", c.baseTopic())
}

func lightCommandExtractor(baseTopic string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf("^%s/([a-z0-9_]+)/light/set$", baseTopic))
}

func buttonCommandExtractor(baseTopic string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf("^%s/([a-z0-9_]+)/button/([a-z0-9_]+)/press$", baseTopic))
}

func adbCommandExtractor(baseTopic string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf("^%s/([a-z0-9_]+)/adb/command$", baseTopic))
}

func bridgeStateTopic(baseTopic string) string {
	return fmt.Sprintf("%s/bridge/state", baseTopic)
}
