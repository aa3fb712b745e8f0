package config

const defaultRateTTLSeconds = 600

type MemcachedConfig struct {
	NodeHosts      []string `yaml:"hosts"`
	RateTTLSeconds int32    `yaml:"rate-ttl-seconds"`
}

func (s *MemcachedConfig) Hosts() []string {
	return s.NodeHosts
}

func (s *MemcachedConfig) RateTTL() int32 {
	if s.RateTTLSeconds <= 0 {
		return defaultRateTTLSeconds
	}
	return s.RateTTLSeconds
}
