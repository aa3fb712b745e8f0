package config

const defaultRecurrenceHorizon = 12

type AppConfig struct {
	BaseCurrencyName  string `yaml:"base-currency"`
	RecurrenceHorizon int    `yaml:"recurrence-horizon"`
	MetricsAddress    string `yaml:"metrics-addr"`
}

func (s *AppConfig) BaseCurrency() string {
	return s.BaseCurrencyName
}

func (s *AppConfig) Horizon() int {
	if s.RecurrenceHorizon <= 0 {
		return defaultRecurrenceHorizon
	}
	return s.RecurrenceHorizon
}

func (s *AppConfig) MetricsAddr() string {
	return s.MetricsAddress
}
