package currency

const (
	KES = "KES"
	USD = "USD"
	EUR = "EUR"
	GBP = "GBP"
	JPY = "JPY"
	RUB = "RUB"
	CNY = "CNY"
)

var Currencies = []string{KES, USD, EUR, GBP, JPY, RUB, CNY}

func Known(name string) bool {
	for _, curr := range Currencies {
		if curr == name {
			return true
		}
	}
	return false
}
