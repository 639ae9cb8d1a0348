// Package config loads server settings from an optional config file,
// a .env file and CAMPLAY_* environment variables, in rising precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every tunable of the server.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `mapstructure:"addr"`

	// CameraID selects the capture device for the camera mini-games.
	CameraID int `mapstructure:"camera_id"`

	// DBPath is where the SQLite history database lives.
	DBPath string `mapstructure:"db_path"`

	// AllowedOrigin is the CORS origin echoed on API responses.
	AllowedOrigin string `mapstructure:"allowed_origin"`

	// Game timings for the rock-paper-scissors machine.
	CountdownTicks int           `mapstructure:"countdown_ticks"`
	TickInterval   time.Duration `mapstructure:"tick_interval"`
	InputWait      time.Duration `mapstructure:"input_wait"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`

	// ConfidenceThreshold is the minimum recognition confidence for a
	// frame to count as the player's throw.
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`

	// QueueCapacity is the per-subscriber broadcast buffer size.
	QueueCapacity int `mapstructure:"queue_capacity"`

	// BroadcastInterval rate-limits the streaming mini-game updates.
	BroadcastInterval time.Duration `mapstructure:"broadcast_interval"`

	// RecognitionInterval is how often the drawing canvas is
	// auto-recognized during a session.
	RecognitionInterval time.Duration `mapstructure:"recognition_interval"`

	// Tray enables the system tray icon.
	Tray bool `mapstructure:"tray"`
}

// Load reads the configuration. A .env file in the working directory is
// applied first, then the optional config file (camplay.yaml), then
// CAMPLAY_* environment variables. Missing files are not an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("camplay")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("config")

	v.SetEnvPrefix("CAMPLAY")
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
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8000")
	v.SetDefault("camera_id", 0)
	v.SetDefault("db_path", "camplay.db")
	v.SetDefault("allowed_origin", "*")

	v.SetDefault("countdown_ticks", 3)
	v.SetDefault("tick_interval", time.Second)
	v.SetDefault("input_wait", 10*time.Second)
	v.SetDefault("poll_interval", 500*time.Millisecond)

	v.SetDefault("confidence_threshold", 0.6)
	v.SetDefault("queue_capacity", 32)
	v.SetDefault("broadcast_interval", time.Second)
	v.SetDefault("recognition_interval", 3*time.Second)
	v.SetDefault("tray", false)
}
