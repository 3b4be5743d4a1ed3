package models

import "sort"

// CurrencyEUR - валюта всех пакетов
const CurrencyEUR = "eur"

// CreditPackage - пакет кредитов. Price в центах.
type CreditPackage struct {
	Key      string `json:"key"`
	Credits  int    `json:"credits"`
	Price    int64  `json:"price"`
	Currency string `json:"currency"`
}

var CreditPackages = map[string]CreditPackage{
	"100": {Key: "100", Credits: 100, Price: 500, Currency: CurrencyEUR},
	"500": {Key: "500", Credits: 500, Price: 1000, Currency: CurrencyEUR},
}

func LookupCreditPackage(key string) (CreditPackage, bool) {
	p, ok := CreditPackages[key]
	return p, ok
}

// ListCreditPackages возвращает пакеты по возрастанию цены
func ListCreditPackages() []CreditPackage {
	out := make([]CreditPackage, 0, len(CreditPackages))
	for _, p := range CreditPackages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out
}
