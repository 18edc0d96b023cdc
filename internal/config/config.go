package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Kurento struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SpeechFlow struct {
	BaseURL   string `mapstructure:"base_url"`
	KeyID     string `mapstructure:"key_id"`
	KeySecret string `mapstructure:"key_secret"`
	Lang      string `mapstructure:"lang"`
}

type FacePlusPlus struct {
	URL       string  `mapstructure:"url"`
	Key       string  `mapstructure:"key"`
	Secret    string  `mapstructure:"secret"`
	Threshold float64 `mapstructure:"threshold"`
}

type Gemini struct {
	URL string `mapstructure:"url"`
	Key string `mapstructure:"key"`
}

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`

	Kurento    Kurento      `mapstructure:"kurento"`
	SpeechFlow SpeechFlow   `mapstructure:"speechflow"`
	FacePP     FacePlusPlus `mapstructure:"facepp"`
	Gemini     Gemini       `mapstructure:"gemini"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")

	v.SetDefault("kurento.url", "ws://localhost:8888/kurento")
	v.SetDefault("kurento.timeout", "10s")

	v.SetDefault("speechflow.base_url", "https://api.speechflow.io")
	v.SetDefault("speechflow.lang", "en")
	v.SetDefault("facepp.url", "https://api-us.faceplusplus.com/facepp/v3/compare")
	v.SetDefault("facepp.threshold", 85.0)
	v.SetDefault("gemini.url", "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
