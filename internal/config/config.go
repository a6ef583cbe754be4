package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// Bus transport selection: "i2c", "spi", "serial" or "sim".
	BusKind string

	// I2C transport
	I2CBus  string
	I2CAddr uint16

	// SPI transport
	SPIDevice string
	SPIFreqHz int64

	// Serial register bridge
	SerialPort string
	SerialBaud uint

	// Interface selection: "primary" or "auxiliary".
	Interface string

	// Bit packing order: "lsb" or "msb". Fixed for the process lifetime.
	BitOrder string

	// Handshake arbitration
	HandshakePolls   int
	HandshakePauseUS int

	// Sensor ranges
	// Gyroscope OIS: 1=±250°/s, 2=±500°/s, 3=±1000°/s, 4=±2000°/s
	GyroFullScale byte
	// Accelerometer OIS: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	AccelFullScale byte

	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	TopicOISGyro         string
	TopicOISAccel        string
	TopicOISTemp         string

	// Timing
	SampleInterval int // milliseconds

	// Web Server (register debug tool)
	WebServerPort int
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported so other packages cannot access it directly.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access. Write lock for initialization,
//     read lock for Get() allows multiple concurrent readers.
//
// External code must use InitGlobal() to set and Get() to read.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := &Config{}
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Bus transport
	case "BUS_KIND":
		switch value {
		case "i2c", "spi", "serial", "sim":
			c.BusKind = value
		default:
			return fmt.Errorf("BUS_KIND must be i2c, spi, serial or sim, got %q", value)
		}
	case "I2C_BUS":
		c.I2CBus = value
	case "I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid I2C_ADDR %q: %w", value, err)
		}
		c.I2CAddr = uint16(addr)
	case "SPI_DEVICE":
		c.SPIDevice = value
	case "SPI_FREQ_HZ":
		freq, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid SPI_FREQ_HZ %q: %w", value, err)
		}
		c.SPIFreqHz = freq
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD":
		baud, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD %q: %w", value, err)
		}
		c.SerialBaud = uint(baud)

	// Interface and bit order
	case "INTERFACE":
		if value != "primary" && value != "auxiliary" {
			return fmt.Errorf("INTERFACE must be primary or auxiliary, got %q", value)
		}
		c.Interface = value
	case "BIT_ORDER":
		if value != "lsb" && value != "msb" {
			return fmt.Errorf("BIT_ORDER must be lsb or msb, got %q", value)
		}
		c.BitOrder = value

	// Handshake arbitration
	case "HANDSHAKE_POLLS":
		polls, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid HANDSHAKE_POLLS %q: %w", value, err)
		}
		if polls < 1 {
			return fmt.Errorf("HANDSHAKE_POLLS must be at least 1, got %d", polls)
		}
		c.HandshakePolls = polls
	case "HANDSHAKE_PAUSE_US":
		pause, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid HANDSHAKE_PAUSE_US %q: %w", value, err)
		}
		if pause < 0 {
			return fmt.Errorf("HANDSHAKE_PAUSE_US must not be negative, got %d", pause)
		}
		c.HandshakePauseUS = pause

	// Sensor ranges
	case "GYRO_FULL_SCALE":
		fs, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GYRO_FULL_SCALE %q: %w", value, err)
		}
		if fs < 1 || fs > 4 {
			return fmt.Errorf("GYRO_FULL_SCALE must be 1-4 (1=±250°/s, 2=±500°/s, 3=±1000°/s, 4=±2000°/s), got %d", fs)
		}
		c.GyroFullScale = byte(fs)
	case "ACCEL_FULL_SCALE":
		fs, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid ACCEL_FULL_SCALE %q: %w", value, err)
		}
		if fs < 0 || fs > 3 {
			return fmt.Errorf("ACCEL_FULL_SCALE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", fs)
		}
		c.AccelFullScale = byte(fs)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "TOPIC_OIS_GYRO":
		c.TopicOISGyro = value
	case "TOPIC_OIS_ACCEL":
		c.TopicOISAccel = value
	case "TOPIC_OIS_TEMP":
		c.TopicOISTemp = value

	// Timing
	case "SAMPLE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SAMPLE_INTERVAL %q: %w", value, err)
		}
		c.SampleInterval = interval

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set and fills defaults.
func (c *Config) validate() error {
	if c.BusKind == "" {
		return fmt.Errorf("BUS_KIND is required")
	}
	switch c.BusKind {
	case "i2c":
		if c.I2CBus == "" {
			return fmt.Errorf("I2C_BUS is required when BUS_KIND=i2c")
		}
		if c.I2CAddr == 0 {
			return fmt.Errorf("I2C_ADDR is required when BUS_KIND=i2c")
		}
	case "spi":
		if c.SPIDevice == "" {
			return fmt.Errorf("SPI_DEVICE is required when BUS_KIND=spi")
		}
	case "serial":
		if c.SerialPort == "" {
			return fmt.Errorf("SERIAL_PORT is required when BUS_KIND=serial")
		}
		if c.SerialBaud == 0 {
			return fmt.Errorf("SERIAL_BAUD is required when BUS_KIND=serial")
		}
	}
	if c.Interface == "" {
		c.Interface = "primary"
	}
	if c.BitOrder == "" {
		c.BitOrder = "lsb"
	}
	if c.SampleInterval == 0 {
		c.SampleInterval = 100
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
