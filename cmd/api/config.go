package main

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/berfenger/frameo2mqtt/internal/config"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func initConfig() (*config.Config, error) {

	// alias PORT => FRAMEO_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("FRAMEO_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("frameo")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	// check and fix base topic
	baseTopic, err := config.CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return nil, errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check and fix homeassistant discovery topic
	hadBaseTopic, err := config.CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return nil, errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.HADiscoveryTopic = hadBaseTopic

	// device ids become topic segments
	for i := range cfg.Devices {
		cfg.Devices[i].Id = strings.ToLower(strings.TrimSpace(cfg.Devices[i].Id))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("mqtt.host", "localhost")
	viper.SetDefault("mqtt.port", 1883)
	viper.SetDefault("mqtt.username", "")
	viper.SetDefault("mqtt.password", "")
	viper.SetDefault("mqtt.ha_discovery_enable", false)
	viper.SetDefault("mqtt.base_topic", "frameo")
	viper.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	viper.SetDefault("transport.request_timeout_millis", 10000)
	viper.SetDefault("transport.connect_timeout_millis", 130000)
	viper.SetDefault("transport.usb_scan_timeout_millis", 30000)
	viper.SetDefault("reconnect.max_attempts", 3)
	viper.SetDefault("reconnect.delay_millis", 0)
	viper.SetDefault("port", 8080)
	viper.SetDefault("http_log", false)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	cfg.Devices = lo.Map(cfg.Devices, func(d config.DeviceConfig, _ int) config.DeviceConfig {
		if d.Serial != "" {
			d.Serial = "*redacted*"
		}
		return d
	})
	slog.Info("Using", "config", cfg)
}
