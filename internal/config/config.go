package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"plant_telemetry/internal/engine"
)

// EnvPrefix is prepended to environment overrides, e.g. PLANT_DB_PATH.
const EnvPrefix = "PLANT"

type Config struct {
	Port      string          `mapstructure:"port"`
	DB        DBConfig        `mapstructure:"db"`
	Log       LogConfig       `mapstructure:"log"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Poll      PollConfig      `mapstructure:"poll"`
	Weather   WeatherConfig   `mapstructure:"weather"`
	Health    HealthConfig    `mapstructure:"health"`
	Simulator SimulatorConfig `mapstructure:"simulator"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Name   string `mapstructure:"name"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// PollConfig holds the poller cadence and engine sizing.
type PollConfig struct {
	SensorInterval     time.Duration `mapstructure:"sensor_interval"`
	HealthInterval     time.Duration `mapstructure:"health_interval"`
	WeatherInterval    time.Duration `mapstructure:"weather_interval"`
	HistoryLimit       int           `mapstructure:"history_limit"`
	PredictionCapacity int           `mapstructure:"prediction_capacity"`
	TrendWindow        int           `mapstructure:"trend_window"`
}

type WeatherConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	UserAgent string        `mapstructure:"user_agent"`
	Latitude  float64       `mapstructure:"latitude"`
	Longitude float64       `mapstructure:"longitude"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// HealthConfig overrides the ideal bands used for scoring.
type HealthConfig struct {
	Moisture    engine.Band `mapstructure:"moisture"`
	Temperature engine.Band `mapstructure:"temperature"`
	Light       engine.Band `mapstructure:"light"`
}

// Policy converts the configured bands into a scoring policy.
func (h HealthConfig) Policy() engine.HealthPolicy {
	return engine.HealthPolicy{
		Moisture:    h.Moisture,
		Temperature: h.Temperature,
		Light:       h.Light,
	}
}

type SimulatorConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// ErrInvalid wraps validation failures.
var ErrInvalid = errors.New("invalid config")

// Load reads config.yml from the given directories (configs/ when none are
// given), applies PLANT_* env overrides and fills defaults. A missing file is
// not an error.
func Load(paths ...string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if len(paths) == 0 {
		paths = []string{"configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db.path", "plants.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.name", "plant-telemetry")
	v.SetDefault("auth.signing_key", "change-me")
	v.SetDefault("auth.token_ttl", 12*time.Hour)

	v.SetDefault("poll.sensor_interval", 5*time.Second)
	v.SetDefault("poll.health_interval", 30*time.Second)
	v.SetDefault("poll.weather_interval", 5*time.Minute)
	v.SetDefault("poll.history_limit", 20)
	v.SetDefault("poll.prediction_capacity", engine.DefaultPredictionCapacity)
	v.SetDefault("poll.trend_window", engine.DefaultTrendWindow)

	v.SetDefault("weather.base_url", "https://api.weather.gov")
	v.SetDefault("weather.user_agent", "plant-telemetry (ops@example.com)")
	v.SetDefault("weather.latitude", 40.7128)
	v.SetDefault("weather.longitude", -74.0060)
	v.SetDefault("weather.timeout", 10*time.Second)

	setBand(v, "health.moisture", engine.DefaultHealthPolicy.Moisture)
	setBand(v, "health.temperature", engine.DefaultHealthPolicy.Temperature)
	setBand(v, "health.light", engine.DefaultHealthPolicy.Light)

	v.SetDefault("simulator.enabled", false)
	v.SetDefault("simulator.interval", 10*time.Second)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "plant-telemetry")
}

func setBand(v *viper.Viper, key string, b engine.Band) {
	v.SetDefault(key+".min", b.Min)
	v.SetDefault(key+".max", b.Max)
	v.SetDefault(key+".falloff", b.Falloff)
	v.SetDefault(key+".swing", b.Swing)
}

func (c Config) validate() error {
	switch {
	case c.Poll.HistoryLimit < 1:
		return fmt.Errorf("%w: poll.history_limit must be positive", ErrInvalid)
	case c.Poll.PredictionCapacity < 1:
		return fmt.Errorf("%w: poll.prediction_capacity must be positive", ErrInvalid)
	case c.Poll.TrendWindow < 2:
		return fmt.Errorf("%w: poll.trend_window must be at least 2", ErrInvalid)
	case c.Poll.SensorInterval <= 0 || c.Poll.HealthInterval <= 0 || c.Poll.WeatherInterval <= 0:
		return fmt.Errorf("%w: poll intervals must be positive", ErrInvalid)
	case c.Log.Format != "console" && c.Log.Format != "json":
		return fmt.Errorf("%w: log.format must be console or json", ErrInvalid)
	}
	for name, b := range map[string]engine.Band{
		"moisture":    c.Health.Moisture,
		"temperature": c.Health.Temperature,
		"light":       c.Health.Light,
	} {
		if b.Min > b.Max {
			return fmt.Errorf("%w: health.%s min exceeds max", ErrInvalid, name)
		}
	}
	return nil
}
