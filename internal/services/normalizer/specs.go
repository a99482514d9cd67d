package normalizer

import (
	"strings"

	"MarketBrief/internal/domain/models"
)

var indexCurrency = map[string]string{
	"NAS100": "USD", "SPX500": "USD", "US30": "USD", "DXY": "USD",
	"GER40": "EUR", "UK100": "GBP", "JPN225": "JPY",
}

var energySymbols = map[string]bool{"USOIL": true, "UKOIL": true, "XNGUSD": true}

// GetInstrumentSpecs derives the price conventions of a canonical symbol.
func GetInstrumentSpecs(symbol string) models.InstrumentSpec {
	s := strings.ToUpper(symbol)
	spec := models.InstrumentSpec{Symbol: s}

	switch {
	case s == "XAUUSD":
		spec.Type, spec.PipSize, spec.StandardLot, spec.DecimalPlaces = models.InstrumentPreciousMetal, 0.1, 100, 2
		spec.Base, spec.Quote = "XAU", "USD"
	case s == "XAGUSD":
		spec.Type, spec.PipSize, spec.StandardLot, spec.DecimalPlaces = models.InstrumentPreciousMetal, 0.01, 5000, 3
		spec.Base, spec.Quote = "XAG", "USD"
	case energySymbols[s]:
		spec.Type, spec.PipSize, spec.StandardLot, spec.DecimalPlaces = models.InstrumentEnergy, 0.01, 1000, 2
		spec.Quote = "USD"
	case indexCurrency[s] != "":
		spec.Type, spec.PipSize, spec.StandardLot, spec.DecimalPlaces = models.InstrumentIndex, 1.0, 1, 1
		spec.Quote = indexCurrency[s]
	case isCrypto(s):
		spec.Type, spec.PipSize, spec.StandardLot, spec.DecimalPlaces = models.InstrumentCrypto, 1.0, 1, 2
		spec.Base, spec.Quote = strings.TrimSuffix(s, "USD"), "USD"
	case len(s) == 6 && knownCurrencies[s[:3]] && knownCurrencies[s[3:]]:
		spec.Type, spec.StandardLot = models.InstrumentForex, 100000
		spec.Base, spec.Quote = s[:3], s[3:]
		if spec.Quote == "JPY" {
			spec.PipSize, spec.DecimalPlaces = 0.01, 3
		} else {
			spec.PipSize, spec.DecimalPlaces = 0.0001, 5
		}
	default:
		spec.Type, spec.PipSize, spec.StandardLot, spec.DecimalPlaces = models.InstrumentStock, 0.01, 1, 2
		spec.Quote = "USD"
	}
	return spec
}

func isCrypto(s string) bool {
	if !strings.HasSuffix(s, "USD") || len(s) <= 3 {
		return false
	}
	return cryptoTickers[strings.TrimSuffix(s, "USD")]
}

var symbolKeywords = map[string][]string{
	"XAUUSD": {"gold", "xau", "bullion", "precious metal"},
	"XAGUSD": {"silver", "xag", "precious metal"},
	"USOIL":  {"oil", "crude", "wti", "opec"},
	"UKOIL":  {"oil", "brent", "opec"},
	"XNGUSD": {"natural gas", "natgas", "lng"},
	"BTCUSD": {"bitcoin", "btc", "crypto"},
	"ETHUSD": {"ethereum", "ether", "eth", "crypto"},
	"NAS100": {"nasdaq", "tech stocks", "wall street"},
	"SPX500": {"s&p", "s&p 500", "wall street", "stocks"},
	"US30":   {"dow", "dow jones", "wall street"},
	"GER40":  {"dax", "german stocks"},
	"UK100":  {"ftse", "uk stocks"},
	"JPN225": {"nikkei", "japanese stocks"},
	"DXY":    {"dollar index", "dxy", "greenback"},
}

var currencyKeywords = map[string][]string{
	"USD": {"dollar", "fed", "fomc", "powell", "treasury"},
	"EUR": {"euro", "ecb", "lagarde", "eurozone"},
	"GBP": {"pound", "sterling", "boe", "bank of england"},
	"JPY": {"yen", "boj", "bank of japan"},
	"AUD": {"aussie", "rba"},
	"NZD": {"kiwi", "rbnz"},
	"CAD": {"loonie", "boc", "bank of canada"},
	"CHF": {"franc", "snb"},
}

// Keywords lists lower-case terms that tie a headline to the instrument.
func Keywords(symbol string) []string {
	s := strings.ToUpper(symbol)
	if kw, ok := symbolKeywords[s]; ok {
		return append([]string(nil), kw...)
	}
	spec := GetInstrumentSpecs(s)
	var out []string
	switch spec.Type {
	case models.InstrumentForex:
		out = append(out, strings.ToLower(spec.Base), strings.ToLower(spec.Quote))
		out = append(out, currencyKeywords[spec.Base]...)
		out = append(out, currencyKeywords[spec.Quote]...)
	case models.InstrumentCrypto:
		out = append(out, strings.ToLower(spec.Base), "crypto")
	default:
		out = append(out, strings.ToLower(s))
	}
	return out
}

// Currencies lists the currencies whose macro releases move the instrument.
func Currencies(symbol string) []string {
	spec := GetInstrumentSpecs(symbol)
	var out []string
	for _, c := range []string{spec.Base, spec.Quote} {
		if c != "" && knownCurrencies[c] && c != "XAU" && c != "XAG" {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		out = append(out, "USD")
	}
	return out
}
