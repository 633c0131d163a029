package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Location sources understood by LOCATION_SOURCE.
const (
	SourceNMEA = "nmea"
	SourceMQTT = "mqtt"
	SourceMock = "mock"
	SourceNone = "none"
)

// Config holds all application configuration values.
type Config struct {
	// Location source: nmea, mqtt, mock or none
	LocationSource     string
	EnableHighAccuracy bool
	RequestTimeoutMS   int // one-shot request timeout, 0 waits forever

	// MQTT
	MQTTBroker          string
	MQTTClientIDWeb     string
	MQTTClientIDGPS     string
	MQTTClientIDConsole string
	MQTTClientIDDisplay string
	TopicGPS            string

	// GPS
	GPSSerialPort string
	GPSBaudRate   int
	GPSMaxHDOP    float64 // high-accuracy readings above this HDOP are rejected, 0 disables

	// Mock source
	MockLatitude   float64
	MockLongitude  float64
	MockIntervalMS int

	// Web Server
	WebServerPort  int
	SnapshotWidth  int
	SnapshotHeight int

	// Display
	DisplayUpdateInterval int // milliseconds

	// Logging: panic, fatal, error, warn, info, debug, trace
	LogLevel string
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal and Get.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a configuration with every optional value filled in.
func Default() *Config {
	return &Config{
		LocationSource:        SourceMock,
		EnableHighAccuracy:    true,
		MQTTBroker:            "tcp://localhost:1883",
		MQTTClientIDWeb:       "whereiam-web",
		MQTTClientIDGPS:       "whereiam-gps-producer",
		MQTTClientIDConsole:   "whereiam-console",
		MQTTClientIDDisplay:   "whereiam-display",
		TopicGPS:              "whereiam/gps",
		GPSSerialPort:         "/dev/serial0",
		GPSBaudRate:           9600,
		GPSMaxHDOP:            2.0,
		MockLatitude:          51.5074,
		MockLongitude:         -0.1278,
		MockIntervalMS:        1000,
		WebServerPort:         8080,
		SnapshotWidth:         1200,
		SnapshotHeight:        630,
		DisplayUpdateInterval: 500,
		LogLevel:              "info",
	}
}

// Keys lists every recognised configuration key.
var Keys = []string{
	"LOCATION_SOURCE", "ENABLE_HIGH_ACCURACY", "REQUEST_TIMEOUT_MS",
	"MQTT_BROKER", "MQTT_CLIENT_ID_WEB", "MQTT_CLIENT_ID_GPS",
	"MQTT_CLIENT_ID_CONSOLE", "MQTT_CLIENT_ID_DISPLAY", "TOPIC_GPS",
	"GPS_SERIAL_PORT", "GPS_BAUD_RATE", "GPS_MAX_HDOP",
	"MOCK_LATITUDE", "MOCK_LONGITUDE", "MOCK_INTERVAL_MS",
	"WEB_SERVER_PORT", "SNAPSHOT_WIDTH", "SNAPSHOT_HEIGHT",
	"DISPLAY_UPDATE_INTERVAL", "LOG_LEVEL",
}

// Load reads the KEY=VALUE configuration file on top of the defaults.
// Environment variables with the same keys override the file. A missing
// file is not an error when configPath is empty.
func Load(configPath string) (*Config, error) {
	values := map[string]string{}
	if configPath != "" {
		file, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		values, err = godotenv.Parse(file)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	for _, key := range Keys {
		if v, ok := os.LookupEnv(key); ok {
			values[key] = v
		}
	}

	// Apply in a stable order so errors are reproducible.
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cfg := Default()
	for _, key := range keys {
		if err := cfg.setValue(key, strings.TrimSpace(values[key])); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	case "LOCATION_SOURCE":
		c.LocationSource = strings.ToLower(value)
	case "ENABLE_HIGH_ACCURACY":
		c.EnableHighAccuracy, err = strconv.ParseBool(value)
	case "REQUEST_TIMEOUT_MS":
		c.RequestTimeoutMS, err = strconv.Atoi(value)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "TOPIC_GPS":
		c.TopicGPS = value

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		c.GPSBaudRate, err = strconv.Atoi(value)
	case "GPS_MAX_HDOP":
		c.GPSMaxHDOP, err = strconv.ParseFloat(value, 64)

	// Mock
	case "MOCK_LATITUDE":
		c.MockLatitude, err = strconv.ParseFloat(value, 64)
	case "MOCK_LONGITUDE":
		c.MockLongitude, err = strconv.ParseFloat(value, 64)
	case "MOCK_INTERVAL_MS":
		c.MockIntervalMS, err = strconv.Atoi(value)

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = strconv.Atoi(value)
	case "SNAPSHOT_WIDTH":
		c.SnapshotWidth, err = strconv.Atoi(value)
	case "SNAPSHOT_HEIGHT":
		c.SnapshotHeight, err = strconv.Atoi(value)

	// Display
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = strconv.Atoi(value)

	case "LOG_LEVEL":
		c.LogLevel = strings.ToLower(value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	switch c.LocationSource {
	case SourceNMEA:
		if c.GPSSerialPort == "" {
			return fmt.Errorf("GPS_SERIAL_PORT is required")
		}
		if c.GPSBaudRate <= 0 {
			return fmt.Errorf("GPS_BAUD_RATE is required")
		}
	case SourceMQTT:
		if c.MQTTBroker == "" {
			return fmt.Errorf("MQTT_BROKER is required")
		}
		if c.TopicGPS == "" {
			return fmt.Errorf("TOPIC_GPS is required")
		}
	case SourceMock:
		if c.MockIntervalMS <= 0 {
			return fmt.Errorf("MOCK_INTERVAL_MS must be positive, got %d", c.MockIntervalMS)
		}
	case SourceNone:
	default:
		return fmt.Errorf("LOCATION_SOURCE must be one of nmea, mqtt, mock, none, got %q", c.LocationSource)
	}
	if c.MockLatitude < -90 || c.MockLatitude > 90 {
		return fmt.Errorf("MOCK_LATITUDE must be within [-90, 90], got %v", c.MockLatitude)
	}
	if c.MockLongitude < -180 || c.MockLongitude > 180 {
		return fmt.Errorf("MOCK_LONGITUDE must be within [-180, 180], got %v", c.MockLongitude)
	}
	if c.WebServerPort <= 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", c.WebServerPort)
	}
	if c.RequestTimeoutMS < 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_MS must not be negative, got %d", c.RequestTimeoutMS)
	}
	if c.GPSMaxHDOP < 0 {
		return fmt.Errorf("GPS_MAX_HDOP must not be negative, got %v", c.GPSMaxHDOP)
	}
	if c.SnapshotWidth <= 0 || c.SnapshotHeight <= 0 {
		return fmt.Errorf("SNAPSHOT_WIDTH and SNAPSHOT_HEIGHT must be positive")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
