package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/berfenger/frameo2mqtt/internal/core/domain"
	"github.com/berfenger/frameo2mqtt/pkg/frameo"

	"github.com/reugn/go-quartz/quartz"
	"github.com/samber/lo"
	"go.uber.org/zap/zapcore"
)

const (
	SCHEDULE_ACTION_TURN_ON  = "turn_on"
	SCHEDULE_ACTION_TURN_OFF = "turn_off"
	SCHEDULE_ACTION_BUTTON   = "button"
	SCHEDULE_ACTION_COMMAND  = "command"
	SCHEDULE_ACTION_REFRESH  = "refresh"

	DEFAULT_SCREEN_WIDTH  = 1280
	DEFAULT_SCREEN_HEIGHT = 800

	FRAME_TASK_REQUESTS = 6
)

type Config struct {
	LogLevel  zapcore.Level
	MQTT      MQTTConfig       `mapstructure:"mqtt"`
	Devices   []DeviceConfig   `mapstructure:"devices"`
	Transport TransportConfig  `mapstructure:"transport"`
	Reconnect ReconnectConfig  `mapstructure:"reconnect"`
	Schedules []ScheduleConfig `mapstructure:"schedules"`
	Port      uint             `mapstructure:"port"`
	HttpLog   bool             `mapstructure:"http_log"`
}

type DeviceConfig struct {
	Id                       string
	Name                     string
	ConnectionType           string `mapstructure:"connection_type"`
	Serial                   string
	Host                     string
	Port                     uint
	Relay                    *RelayConfig `mapstructure:"relay"`
	Screen                   ScreenConfig `mapstructure:"screen"`
	StatePollIntervalSeconds uint32       `mapstructure:"state_poll_interval_seconds"`
	TrackIPAddress           bool         `mapstructure:"track_ip_address"`
}

type RelayConfig struct {
	Host string
	Port uint
}

type ScreenConfig struct {
	Width  int
	Height int
}

type TransportConfig struct {
	RequestTimeoutMillis uint32 `mapstructure:"request_timeout_millis"`
	ConnectTimeoutMillis uint32 `mapstructure:"connect_timeout_millis"`
	USBScanTimeoutMillis uint32 `mapstructure:"usb_scan_timeout_millis"`
}

type ReconnectConfig struct {
	MaxAttempts uint   `mapstructure:"max_attempts"`
	DelayMillis uint32 `mapstructure:"delay_millis"`
}

type ScheduleConfig struct {
	Device     string
	Cron       string
	Action     string
	Brightness *uint8
	Button     string
	Command    string
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

func (t TransportConfig) Timeouts() frameo.Timeouts {
	return frameo.Timeouts{
		Request: time.Duration(t.RequestTimeoutMillis) * time.Millisecond,
		Connect: time.Duration(t.ConnectTimeoutMillis) * time.Millisecond,
		USBScan: time.Duration(t.USBScanTimeoutMillis) * time.Millisecond,
	}
}

// FrameTaskTimeout bounds one device call: a full reconnect cycle followed
// by the requests of a command and its refresh.
func (c Config) FrameTaskTimeout() time.Duration {
	timeouts := c.Transport.Timeouts()
	defaults := frameo.DefaultTimeouts()
	if timeouts.Request <= 0 {
		timeouts.Request = defaults.Request
	}
	if timeouts.Connect <= 0 {
		timeouts.Connect = defaults.Connect
	}
	attempts := time.Duration(max(c.Reconnect.MaxAttempts, 1))
	return attempts*(timeouts.Connect+c.Reconnect.Delay()) + FRAME_TASK_REQUESTS*timeouts.Request
}

func (r ReconnectConfig) Delay() time.Duration {
	return time.Duration(r.DelayMillis) * time.Millisecond
}

func (d DeviceConfig) PollInterval() time.Duration {
	return time.Duration(d.StatePollIntervalSeconds) * time.Second
}

func (d DeviceConfig) ConnectionConfig() frameo.ConnectionConfig {
	conn := frameo.ConnectionConfig{
		Kind:   frameo.ConnectionKind(d.ConnectionType),
		Serial: d.Serial,
		Host:   d.Host,
		Port:   d.Port,
	}
	if conn.Kind == frameo.ConnectionNetwork && conn.Port == 0 {
		conn.Port = frameo.DEFAULT_DEVICE_PORT
	}
	if d.Relay != nil {
		relay := frameo.Endpoint{Host: d.Relay.Host, Port: d.Relay.Port}
		if relay.Port == 0 {
			relay.Port = frameo.DEFAULT_RELAY_PORT
		}
		conn.Relay = &relay
	}
	return conn
}

func (d DeviceConfig) FrameDevice() domain.FrameDevice {
	res := frameo.Resolution{Width: d.Screen.Width, Height: d.Screen.Height}
	if res.Width <= 0 || res.Height <= 0 {
		res = frameo.Resolution{Width: DEFAULT_SCREEN_WIDTH, Height: DEFAULT_SCREEN_HEIGHT}
	}
	return domain.FrameDevice{
		Id:                d.Id,
		Name:              d.Name,
		Connection:        d.ConnectionConfig(),
		DefaultResolution: res,
		TrackIPAddress:    d.TrackIPAddress,
	}
}

func (c Config) FrameDevices() []domain.FrameDevice {
	return lo.Map(c.Devices, func(d DeviceConfig, _ int) domain.FrameDevice {
		return d.FrameDevice()
	})
}

func (c Config) Device(id string) (DeviceConfig, bool) {
	return lo.Find(c.Devices, func(d DeviceConfig) bool {
		return d.Id == id
	})
}

// Validate checks devices and schedules. Device ids become topic segments,
// so they follow the same rules as the base topic.
func (c Config) Validate() error {
	if len(c.Devices) == 0 {
		return errors.New("at least one device must be configured")
	}
	var errs []error
	seen := map[string]bool{}
	for i, d := range c.Devices {
		id, err := CheckMQTTTopic(d.Id)
		if err != nil || id != d.Id {
			errs = append(errs, fmt.Errorf("devices[%d]: invalid id %q. can only contain lowercase letters, numbers and underscores", i, d.Id))
			continue
		}
		if seen[d.Id] {
			errs = append(errs, fmt.Errorf("devices[%d]: %w: %s", i, domain.ErrDuplicateDevice, d.Id))
		}
		seen[d.Id] = true
		if err := d.ConnectionConfig().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("devices[%d]: %w", i, err))
		}
		if d.StatePollIntervalSeconds > 0 && d.StatePollIntervalSeconds < 5 {
			errs = append(errs, fmt.Errorf("devices[%d]: state_poll_interval_seconds should be >= 5", i))
		}
	}
	for i, s := range c.Schedules {
		if !seen[s.Device] {
			errs = append(errs, fmt.Errorf("schedules[%d]: %w: %s", i, domain.ErrUnknownDevice, s.Device))
		}
		if err := s.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("schedules[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (s ScheduleConfig) Validate() error {
	if strings.TrimSpace(s.Cron) == "" {
		return errors.New("cron expression is required")
	}
	if _, err := quartz.NewCronTrigger(s.Cron); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", s.Cron, err)
	}
	switch s.Action {
	case SCHEDULE_ACTION_TURN_ON, SCHEDULE_ACTION_TURN_OFF, SCHEDULE_ACTION_REFRESH:
	case SCHEDULE_ACTION_BUTTON:
		if _, ok := domain.FindButton(s.Button); !ok {
			return fmt.Errorf("%w: %s", domain.ErrUnknownButton, s.Button)
		}
	case SCHEDULE_ACTION_COMMAND:
		if strings.TrimSpace(s.Command) == "" {
			return errors.New("command action requires a command")
		}
	default:
		return fmt.Errorf("unknown action %q", s.Action)
	}
	return nil
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}
