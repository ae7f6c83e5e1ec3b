package config

import (
	"errors"
	"strings"

	"github.com/JeremyLoy/config"
)

// Config is the process configuration, loaded from the environment.
type Config struct {
	Port           string `config:"PORT"`
	AllowedOrigins string `config:"ALLOWED_ORIGINS"`
	JWTKey         string `config:"JWT_KEY"`
	Debug          bool   `config:"DEBUG"`
}

func Load() (Config, error) {
	c := Config{Port: "5000"}
	if err := config.FromEnv().To(&c); err != nil {
		return Config{}, err
	}
	if c.JWTKey == "" {
		return Config{}, errors.New("missing JWT_KEY")
	}
	if c.AllowedOrigins == "" {
		return Config{}, errors.New("missing ALLOWED_ORIGINS")
	}
	return c, nil
}

func (c Config) Origins() []string {
	return strings.Split(c.AllowedOrigins, ",")
}

func (c Config) Addr() string {
	return ":" + c.Port
}
