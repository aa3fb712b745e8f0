package config

type SQLiteConfig struct {
	File string `yaml:"file"`
}

func (s *SQLiteConfig) Path() string {
	if s.File == "" {
		return "data/tracker.db"
	}
	return s.File
}
