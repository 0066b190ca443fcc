package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string        `yaml:"env" env-required:"true"`
	StoragePath string        `yaml:"storage_path" env-required:"true"`
	ProjectsDir string        `yaml:"projects_dir" env-required:"true"`
	TokenTTL    time.Duration `yaml:"token_ttl" env-default:"1h"`
	HTTPServer  `yaml:"http_server"`
	Timeline    `yaml:"timeline"`
	Resolver    `yaml:"resolver"`
	Persist     `yaml:"persist"`
	Messenger   `yaml:"messenger"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Timeline struct {
	MinDuration      float64       `yaml:"min_duration" env-default:"10"`
	MinImageDuration float64       `yaml:"min_image_duration" env-default:"1"`
	UndoCapacity     int           `yaml:"undo_capacity" env-default:"100"`
	PlaybackTick     time.Duration `yaml:"playback_tick" env-default:"50ms"`
	WatchSettle      time.Duration `yaml:"watch_settle" env-default:"100ms"`
}

type Resolver struct {
	MaxAttempts int           `yaml:"max_attempts" env-default:"3"`
	BaseDelay   time.Duration `yaml:"base_delay" env-default:"200ms"`
}

type Persist struct {
	Debounce    time.Duration `yaml:"debounce" env-default:"500ms"`
	MaxAttempts int           `yaml:"max_attempts" env-default:"3"`
	BaseDelay   time.Duration `yaml:"base_delay" env-default:"200ms"`
}

// Messenger is where marker requests are posted. Requests are only
// logged when URL is empty.
type Messenger struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout" env-default:"5s"`
}

func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		panic("config path is empty")
	}

	return MustLoadPath(configPath)
}

func MustLoadPath(configPath string) *Config {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
}

// fetchConfigPath fetches config path from command line flag or environment variable.
// Priority: flag > env > default.
// Default value is empty string.
func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
