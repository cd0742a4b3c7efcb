package models

// FxRatesPayload is the cached/served shape for fiat exchange rates quoted
// against a single base currency.
type FxRatesPayload struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
	TS    int64              `json:"ts"`
}

// CryptoPricesPayload is the cached/served shape for crypto simple prices:
// coin id -> currency code -> price.
type CryptoPricesPayload struct {
	Data map[string]map[string]float64 `json:"data"`
	TS   int64                         `json:"ts"`
}

// Conversion is the result of converting an amount from a base currency into
// a target currency. TS carries the timestamp of the rate table the
// conversion was derived from, not the time of the request.
type Conversion struct {
	Base   string  `json:"base"`
	To     string  `json:"to"`
	Rate   float64 `json:"rate"`
	Amount float64 `json:"amount"`
	Result float64 `json:"result"`
	TS     int64   `json:"ts"`
}
