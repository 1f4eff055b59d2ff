package config

import (
	"testing"
	"time"

	"github.com/berfenger/frameo2mqtt/internal/core/domain"
	"github.com/berfenger/frameo2mqtt/pkg/frameo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckMQTTTopic(t *testing.T) {

	assert := assert.New(t)

	topic, err := CheckMQTTTopic("Frameo_2")
	assert.NoError(err)
	assert.Equal("frameo_2", topic)

	_, err = CheckMQTTTopic("frameo/bridge")
	assert.Error(err)
}

func TestDeviceConfigDefaults(t *testing.T) {

	assert := assert.New(t)

	d := DeviceConfig{
		Id:             "living",
		ConnectionType: string(frameo.ConnectionNetwork),
		Host:           "192.168.1.50",
		Relay:          &RelayConfig{Host: "localhost"},
	}
	frame := d.FrameDevice()

	assert.Equal(uint(frameo.DEFAULT_DEVICE_PORT), frame.Connection.Port)
	assert.Equal(uint(frameo.DEFAULT_RELAY_PORT), frame.Connection.Relay.Port)
	assert.Equal(frameo.Resolution{Width: 1280, Height: 800}, frame.DefaultResolution)
}

func TestValidate(t *testing.T) {

	require := require.New(t)

	cfg := Config{
		Devices: []DeviceConfig{
			{Id: "living", ConnectionType: "USB", Serial: "FRAMEO0001"},
		},
		Schedules: []ScheduleConfig{
			{Device: "living", Cron: "0 0 22 * * *", Action: SCHEDULE_ACTION_TURN_OFF},
			{Device: "living", Cron: "0 0 7 * * *", Action: SCHEDULE_ACTION_BUTTON, Button: domain.BUTTON_START_FRAMEO},
		},
	}
	require.NoError(cfg.Validate())

	cfg.Devices = append(cfg.Devices, DeviceConfig{Id: "living", ConnectionType: "USB"})
	require.ErrorIs(cfg.Validate(), domain.ErrDuplicateDevice)

	cfg.Devices = cfg.Devices[:1]
	cfg.Schedules = append(cfg.Schedules, ScheduleConfig{Device: "kitchen", Cron: "0 0 7 * * *", Action: SCHEDULE_ACTION_REFRESH})
	require.ErrorIs(cfg.Validate(), domain.ErrUnknownDevice)

	cfg.Schedules = []ScheduleConfig{{Device: "living", Cron: "0 0 7 * * *", Action: SCHEDULE_ACTION_BUTTON, Button: "nope"}}
	require.ErrorIs(cfg.Validate(), domain.ErrUnknownButton)

	cfg.Schedules = []ScheduleConfig{{Device: "living", Cron: "every morning", Action: SCHEDULE_ACTION_REFRESH}}
	require.ErrorContains(cfg.Validate(), "invalid cron expression")

	require.Error(Config{}.Validate())
	require.Error(Config{Devices: []DeviceConfig{{Id: "Living Room", ConnectionType: "USB"}}}.Validate())
	require.Error(Config{Devices: []DeviceConfig{{Id: "living", ConnectionType: "Bluetooth"}}}.Validate())
}

func TestFrameTaskTimeout(t *testing.T) {

	cfg := Config{
		Transport: TransportConfig{RequestTimeoutMillis: 2000, ConnectTimeoutMillis: 2000},
		Reconnect: ReconnectConfig{MaxAttempts: 3, DelayMillis: 500},
	}
	assert.Equal(t, 3*2500*time.Millisecond+6*2*time.Second, cfg.FrameTaskTimeout())

	// unset values fall back to the transport defaults
	assert.Equal(t, 130*time.Second+60*time.Second, Config{}.FrameTaskTimeout())
}
