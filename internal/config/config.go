package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode            string        `mapstructure:"mode" validate:"oneof=debug release test"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	StaticPath      string        `mapstructure:"static_path"`
	ReadLimit       int64         `mapstructure:"read_limit" validate:"min=512"`
	PingPeriod      time.Duration `mapstructure:"ping_period" validate:"min=1s"`
	Secret          string        `mapstructure:"secret" validate:"required"`
	LogLevel        string        `mapstructure:"log_level"`
	DefaultLanguage string        `mapstructure:"default_language"`

	Translation Translation `mapstructure:"translation"`
	Fanout      Fanout      `mapstructure:"fanout"`
	Signal      Signal      `mapstructure:"signal"`
	ICEServers  []ICEServer `mapstructure:"ice_servers" validate:"dive"`
}

type Translation struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout" validate:"min=0s"`
}

type Fanout struct {
	MaxParallel int `mapstructure:"max_parallel" validate:"min=1"`
}

type Signal struct {
	SendBuffer        int           `mapstructure:"send_buffer" validate:"min=1"`
	UtteranceLimit    int           `mapstructure:"utterance_limit" validate:"min=1"`
	UtteranceInterval time.Duration `mapstructure:"utterance_interval" validate:"min=1ms"`
}

type ICEServer struct {
	URLs       []string `mapstructure:"urls" validate:"min=1,dive,required"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

// NewViper returns a viper instance with every default and environment
// binding in place. Callers may bind CLI flags on it before Load.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("config_env", "dev")
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "babel-dev-secret")
	v.SetDefault("log_level", "info")
	v.SetDefault("default_language", "en")
	v.SetDefault("translation.model", "gemini-2.0-flash")
	v.SetDefault("translation.timeout", "8s")
	v.SetDefault("fanout.max_parallel", 4)
	v.SetDefault("signal.send_buffer", 64)
	v.SetDefault("signal.utterance_limit", 5)
	v.SetDefault("signal.utterance_interval", "1s")
	v.SetDefault("ice_servers", []map[string]any{
		{"urls": []string{"stun:stun.l.google.com:19302"}},
	})

	_ = v.BindEnv("config_env", "CONFIG_ENV")
	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("mode", "GIN_MODE")
	_ = v.BindEnv("translation.api_key", "GEMINI_API_KEY")
	return v
}

// Load reads .env, then config/config.<env>.yaml, then unmarshals and
// validates the result. A missing file is not an error.
func Load(v *viper.Viper) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("module", "config").Msg(".env not loaded")
	}

	env := v.GetString("config_env")
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	v.SetConfigFile(fileName)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("config loaded")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Str("static", cfg.StaticPath).
		Bool("translator", cfg.Translation.APIKey != "").
		Msg("config ready")
	return &cfg, nil
}

// Level is the zerolog level for log_level, info when unparsable.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
