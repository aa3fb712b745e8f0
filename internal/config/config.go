package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const configFile = "data/config.yaml"

type config struct {
	App         AppConfig         `yaml:"app"`
	Frankfurter FrankfurterConfig `yaml:"frankfurter"`
	Memcached   MemcachedConfig   `yaml:"memcached"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	SQLite      SQLiteConfig      `yaml:"sqlite"`
	Storage     StorageConfig     `yaml:"storage"`
}

type Service struct {
	config config
}

func New() (*Service, error) {
	s := &Service{}

	rawYAML, err := os.ReadFile(configFile)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}

	err = yaml.Unmarshal(rawYAML, &s.config)
	if err != nil {
		return nil, errors.Wrap(err, "parsing yaml")
	}

	return s, nil
}

func (s *Service) App() *AppConfig {
	return &s.config.App
}

func (s *Service) Frankfurter() *FrankfurterConfig {
	return &s.config.Frankfurter
}

func (s *Service) Memcached() *MemcachedConfig {
	return &s.config.Memcached
}

func (s *Service) Postgres() *PostgresConfig {
	return &s.config.Postgres
}

func (s *Service) SQLite() *SQLiteConfig {
	return &s.config.SQLite
}

func (s *Service) Storage() *StorageConfig {
	return &s.config.Storage
}
