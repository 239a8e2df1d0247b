package ai

import (
	"regexp"
	"strings"
)

// Cryptocurrency mentions are extracted lexically and merged into a
// message's tags, so ticker talk stays searchable even when the
// analyzer misses it.
var tickerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:BTC|Bitcoin)\b`),
	regexp.MustCompile(`(?i)\b(?:ETH|Ethereum)\b`),
	regexp.MustCompile(`(?i)\b(?:ADA|Cardano)\b`),
	regexp.MustCompile(`(?i)\b(?:SOL|Solana)\b`),
	regexp.MustCompile(`(?i)\b(?:DOT|Polkadot)\b`),
	regexp.MustCompile(`(?i)\b(?:LINK|Chainlink)\b`),
	regexp.MustCompile(`(?i)\b(?:MATIC|Polygon)\b`),
	regexp.MustCompile(`(?i)\b(?:AVAX|Avalanche)\b`),
}

var dollarTickerPattern = regexp.MustCompile(`\$[A-Z]{2,10}\b`)

// canonical ticker symbol per pattern, same order as tickerPatterns
var tickerSymbols = []string{"btc", "eth", "ada", "sol", "dot", "link", "matic", "avax"}

// ExtractTickers returns the lowercase ticker symbols mentioned in text,
// deduplicated, in first-mention order for $-prefixed symbols.
func ExtractTickers(text string) []string {
	seen := make(map[string]bool)
	var out []string

	for i, pat := range tickerPatterns {
		if pat.MatchString(text) && !seen[tickerSymbols[i]] {
			seen[tickerSymbols[i]] = true
			out = append(out, tickerSymbols[i])
		}
	}
	for _, m := range dollarTickerPattern.FindAllString(text, -1) {
		sym := strings.ToLower(strings.TrimPrefix(m, "$"))
		if !seen[sym] {
			seen[sym] = true
			out = append(out, sym)
		}
	}
	return out
}

// MergeTags combines analyzer tags with extracted tickers, keeping the
// MaxTags cap and preferring the analyzer's own tags.
func MergeTags(tags, tickers []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, t := range tickers {
		if len(out) >= MaxTags {
			break
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	if len(out) > MaxTags {
		out = out[:MaxTags]
	}
	return out
}
