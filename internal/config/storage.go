package config

type StorageConfig struct {
	BackendName string `yaml:"backend"`
}

func (s *StorageConfig) Backend() string {
	if s.BackendName == "" {
		return "sqlite"
	}
	return s.BackendName
}
