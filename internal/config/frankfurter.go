package config

const (
	defaultFrankfurterURL = "https://api.frankfurter.app"
	defaultTimeoutSeconds = 10
)

type FrankfurterConfig struct {
	URL            string `yaml:"base-url"`
	TimeoutSeconds int64  `yaml:"timeout-seconds"`
}

func (f *FrankfurterConfig) BaseURL() string {
	if f.URL == "" {
		return defaultFrankfurterURL
	}
	return f.URL
}

func (f *FrankfurterConfig) Timeout() int64 {
	if f.TimeoutSeconds <= 0 {
		return defaultTimeoutSeconds
	}
	return f.TimeoutSeconds
}
