package util

import (
	"github.com/berfenger/frameo2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		MQTT: config.MQTTConfig{
			Host:              "localhost",
			Port:              1883,
			BaseTopic:         "frameo",
			HADiscoveryEnable: true,
			HADiscoveryTopic:  "homeassistant",
		},
		Devices: []config.DeviceConfig{
			{
				Id:             "living",
				Name:           "Living room",
				ConnectionType: "Network",
				Host:           "192.168.1.50",
				Port:           5555,
				Screen: config.ScreenConfig{
					Width:  1280,
					Height: 800,
				},
				TrackIPAddress: true,
			},
		},
		Transport: config.TransportConfig{
			RequestTimeoutMillis: 2000,
			ConnectTimeoutMillis: 2000,
			USBScanTimeoutMillis: 2000,
		},
		Reconnect: config.ReconnectConfig{
			MaxAttempts: 3,
		},
		Port: 8080,
	}
}
