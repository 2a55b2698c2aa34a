package rates

import "regexp"

// etfCodePatterns match exchange-traded fund codes on TWSE and TPEx:
// the original 0050-0057 series, six digit 006xxx funds, five digit 00xxx
// funds and their leveraged, inverse, currency and bond suffixes.
var etfCodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^005[0-7]$`),
	regexp.MustCompile(`^006\d{3}$`),
	regexp.MustCompile(`^00\d{3}[LRUBA]$`),
	regexp.MustCompile(`^00\d{3}$`),
}

// IsETF reports whether an instrument is taxed and charged as an ETF.
// A non-empty etfType from instrument metadata wins; otherwise the code
// is matched against the known ETF code patterns.
func IsETF(code, etfType string) bool {
	if etfType != "" {
		return true
	}
	for _, p := range etfCodePatterns {
		if p.MatchString(code) {
			return true
		}
	}
	return false
}
