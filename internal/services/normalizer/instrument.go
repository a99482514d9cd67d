package normalizer

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

type alias struct {
	text   string
	symbol string
	re     *regexp.Regexp
}

// instrumentAliases maps free-text names to canonical symbols.
var instrumentAliases = map[string]string{
	// metals
	"gold": "XAUUSD", "xau": "XAUUSD", "xauusd": "XAUUSD", "xau/usd": "XAUUSD", "bullion": "XAUUSD",
	"silver": "XAGUSD", "xag": "XAGUSD", "xagusd": "XAGUSD", "xag/usd": "XAGUSD",
	// energy
	"oil": "USOIL", "crude": "USOIL", "crude oil": "USOIL", "wti": "USOIL", "usoil": "USOIL",
	"brent": "UKOIL", "ukoil": "UKOIL",
	"natural gas": "XNGUSD", "natgas": "XNGUSD", "nat gas": "XNGUSD",
	// forex nicknames
	"cable": "GBPUSD", "pound": "GBPUSD", "sterling": "GBPUSD",
	"fiber": "EURUSD", "fibre": "EURUSD", "euro": "EURUSD",
	"aussie": "AUDUSD", "kiwi": "NZDUSD", "loonie": "USDCAD", "swissy": "USDCHF",
	"yen": "USDJPY", "dollar yen": "USDJPY", "gopher": "USDJPY",
	"guppy": "GBPJPY", "geppy": "GBPJPY", "chunnel": "EURGBP", "yuppy": "EURJPY",
	"dxy": "DXY", "dollar index": "DXY",
	// crypto
	"bitcoin": "BTCUSD", "btc": "BTCUSD", "ethereum": "ETHUSD", "ether": "ETHUSD", "eth": "ETHUSD",
	"solana": "SOLUSD", "ripple": "XRPUSD", "dogecoin": "DOGEUSD", "litecoin": "LTCUSD",
	// indices
	"nasdaq": "NAS100", "nas100": "NAS100", "us100": "NAS100", "nq": "NAS100",
	"s&p": "SPX500", "s&p 500": "SPX500", "s&p500": "SPX500", "sp500": "SPX500", "spx": "SPX500", "us500": "SPX500", "spx500": "SPX500",
	"dow": "US30", "dow jones": "US30", "us30": "US30",
	"dax": "GER40", "ger40": "GER40", "ger30": "GER40",
	"ftse": "UK100", "uk100": "UK100",
	"nikkei": "JPN225", "jp225": "JPN225", "jpn225": "JPN225",
	// equities
	"apple": "AAPL", "tesla": "TSLA", "nvidia": "NVDA", "microsoft": "MSFT", "amazon": "AMZN",
	"google": "GOOGL", "alphabet": "GOOGL", "meta": "META", "netflix": "NFLX",
}

// sortedAliases is the alias table ordered longest alias first, so "s&p 500" wins over "s&p".
var sortedAliases = buildAliases(instrumentAliases)

func buildAliases(m map[string]string) []alias {
	out := make([]alias, 0, len(m))
	for k, v := range m {
		out = append(out, alias{text: k, symbol: v, re: boundaryRegexp(k)})
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].text) != len(out[j].text) {
			return len(out[i].text) > len(out[j].text)
		}
		return out[i].text < out[j].text
	})
	return out
}

// matchAlias returns the alias occurring earliest in text. Aliases are ordered
// longest first, so at equal positions the longer alias wins.
func matchAlias(aliases []alias, text string) (string, bool) {
	best, bestPos := "", -1
	for _, a := range aliases {
		loc := a.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if bestPos < 0 || loc[0] < bestPos {
			best, bestPos = a.symbol, loc[0]
		}
	}
	return best, bestPos >= 0
}

// boundaryRegexp matches s as a whole word. \b is not usable around "&" or "/".
func boundaryRegexp(s string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[^a-z0-9])` + regexp.QuoteMeta(s) + `(?:$|[^a-z0-9])`)
}

var knownCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true, "AUD": true, "NZD": true,
	"CAD": true, "CHF": true, "SEK": true, "NOK": true, "DKK": true, "SGD": true,
	"HKD": true, "MXN": true, "ZAR": true, "TRY": true, "CNH": true, "PLN": true,
	"XAU": true, "XAG": true,
}

var cryptoTickers = map[string]bool{
	"BTC": true, "ETH": true, "SOL": true, "XRP": true, "ADA": true, "DOGE": true,
	"BNB": true, "LTC": true, "DOT": true, "AVAX": true, "LINK": true, "MATIC": true,
}

var (
	forexPairRe = regexp.MustCompile(`(?i)\b([a-z]{3})\s?/?\s?([a-z]{3})\b`)
	cryptoRe    = regexp.MustCompile(`(?i)\b(btc|eth|sol|xrp|ada|doge|bnb|ltc|avax|matic)(?:[-/]?(?:usdt|usd))?\b`)
	stockRe     = regexp.MustCompile(`(?i)\b([a-z]{1,5})\s+(?:stock|stocks|shares|share price)\b`)
)

var stockStopWords = map[string]bool{
	"the": true, "this": true, "that": true, "my": true, "a": true, "an": true, "buy": true,
	"sell": true, "any": true, "some": true, "its": true, "of": true, "in": true, "your": true,
	"our": true, "which": true, "what": true, "tech": true, "more": true, "all": true,
}

// ExtractInstrument resolves the first instrument named in text.
// It returns ok=false when nothing recognizable is present.
func ExtractInstrument(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	if sym, ok := matchAlias(sortedAliases, text); ok {
		return sym, true
	}
	if sym, ok := findForexPair(text); ok {
		return sym, true
	}
	if m := cryptoRe.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1]) + "USD", true
	}
	if m := stockRe.FindStringSubmatch(text); m != nil {
		word := strings.ToLower(m[1])
		if !stockStopWords[word] {
			return strings.ToUpper(word), true
		}
	}
	return "", false
}

// findForexPair scans adjacent three-letter groups. A rejected match is retried
// from its second group so "buy eur usd" still finds EURUSD.
func findForexPair(text string) (string, bool) {
	for pos := 0; pos < len(text); {
		loc := forexPairRe.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			return "", false
		}
		base := strings.ToUpper(text[pos+loc[2] : pos+loc[3]])
		quote := strings.ToUpper(text[pos+loc[4] : pos+loc[5]])
		if base != quote && knownCurrencies[base] && knownCurrencies[quote] {
			return base + quote, true
		}
		next := pos + loc[4]
		if isWordByte(text[next-1]) {
			next = pos + loc[1]
		}
		pos = next
	}
	return "", false
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

// ErrUnknownInstrument is returned by ResolveSymbol for unrecognized input.
var ErrUnknownInstrument = errors.New("unknown instrument")

// ResolveSymbol is NormalizeSymbol with an error for callers that must reject bad input.
func ResolveSymbol(s string) (string, error) {
	sym, ok := NormalizeSymbol(s)
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownInstrument, s)
	}
	return sym, nil
}

// NormalizeSymbol canonicalizes an explicit symbol override ("eur/usd", "Gold").
func NormalizeSymbol(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if sym, ok := instrumentAliases[strings.ToLower(s)]; ok {
		return sym, true
	}
	compact := strings.ToUpper(strings.NewReplacer("/", "", "-", "", "_", "", " ", "").Replace(s))
	if len(compact) == 6 && knownCurrencies[compact[:3]] && knownCurrencies[compact[3:]] {
		return compact, true
	}
	if sym, ok := ExtractInstrument(s); ok {
		return sym, true
	}
	if len(compact) >= 1 && len(compact) <= 6 && isLetters(compact) {
		return compact, true
	}
	return "", false
}

func isLetters(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
