package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config is the fully resolved server configuration. Values come from
// cargoclash.yaml in the config dir, overridable via CARGOCLASH_* env vars;
// everything has a working default so the server boots with no file at all.
type Config struct {
	HTTPAddr string `mapstructure:"http_addr"`
	WSAddr   string `mapstructure:"ws_addr"`
	LogLevel string `mapstructure:"log_level"`

	DB struct {
		DSN        string `mapstructure:"dsn"`
		SQLitePath string `mapstructure:"sqlite_path"`
		InMemory   bool   `mapstructure:"in_memory"`
	} `mapstructure:"db"`

	World struct {
		SeedFile       string        `mapstructure:"seed_file"`
		TickInterval   time.Duration `mapstructure:"tick_interval"`
		TimeUnit       time.Duration `mapstructure:"time_unit"`
		MissionTarget  int           `mapstructure:"mission_target"`
		DriftEvery     int           `mapstructure:"drift_every"`
		NoticeEvery    int           `mapstructure:"notice_every"`
		CommandTimeout time.Duration `mapstructure:"command_timeout"`
	} `mapstructure:"world"`
}

func Load(configDir string) (Config, error) {
	v := viper.New()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("ws_addr", ":8081")
	v.SetDefault("log_level", "info")

	v.SetDefault("db.dsn", "")
	v.SetDefault("db.sqlite_path", "cargoclash.db")
	v.SetDefault("db.in_memory", false)

	v.SetDefault("world.seed_file", "world.yaml")
	v.SetDefault("world.tick_interval", 5*time.Second)
	v.SetDefault("world.time_unit", time.Minute)
	v.SetDefault("world.mission_target", 20)
	v.SetDefault("world.drift_every", 12)
	v.SetDefault("world.notice_every", 120)
	v.SetDefault("world.command_timeout", 10*time.Second)

	v.SetConfigName("cargoclash")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("CARGOCLASH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
