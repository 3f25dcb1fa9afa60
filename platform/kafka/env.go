package kafka

import (
	"github.com/caarlos0/env/v10"
)

// LoadEnv читает Config из переменных окружения
func LoadEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFrom читает Config из переданного набора переменных (используется в тестах)
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
