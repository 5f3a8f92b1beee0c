package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// Deterministic tier: ordered pattern rules, first match wins. Priority is
// wallet > trade > market price > sentiment > news > knowledge; cheap utility
// commands must resolve without a model call.

var (
	evmAddrRe    = regexp.MustCompile(`\b0x[0-9a-fA-F]{40}\b`)
	solAddrRe    = regexp.MustCompile(`\b[1-9A-HJ-NP-Za-km-z]{32,44}\b`)
	trackVerbRe  = regexp.MustCompile(`(?i)\b(track|watch|follow|monitor|add)\b`)
	walletWordRe = regexp.MustCompile(`(?i)\b(wallet|address|holdings|balance)\b`)

	// "bought 1 BTC at $45,000", "sold 2.5 eth @ 2200, bought at 2000"
	tradeRe = regexp.MustCompile(`(?i)\b(bought|sold)\s+([\d.]+)\s*([a-zA-Z]{2,10})\s+(?:at|@|for)\s*\$?([\d,]+(?:\.\d+)?)`)

	sellEntryRe = regexp.MustCompile(`(?i)bought\s+(?:at|@|for)\s*\$?([\d,]+(?:\.\d+)?)`)

	tradeSummaryRe = regexp.MustCompile(`(?i)\b(my|our)\s+(trade|trading)\s+(stats|summary|history|performance)\b|(?i)\bhow\s+(am i|have i been)\s+(doing|trading)\b`)

	priceWordRe = regexp.MustCompile(`(?i)\b(price|cost|worth|quote|trading at)\b`)
	dollarSymRe = regexp.MustCompile(`\$([A-Za-z]{2,6})\b`)
	tickerRe    = regexp.MustCompile(`\b([A-Z]{2,6})\b`)

	sentimentRe = regexp.MustCompile(`(?i)\b(sentiment|bullish|bearish)\b|(?i)\bmarket\s+(mood|feeling|vibe)\b|(?i)\bfear\s*(and|&)\s*greed\b`)
	newsRe      = regexp.MustCompile(`(?i)\b(news|headlines|announcements?)\b`)

	knowledgeRe = regexp.MustCompile(`(?i)\b(what\s+is|what's|what\s+does|explain|how\s+does|meaning\s+of|definition\s+of)\b`)

	greetingRe = regexp.MustCompile(`(?i)^\s*(hi|hey|hello|yo|gm|good\s+(morning|evening|night)|thanks|thank you|lol|haha)\b[\s!.,]*$`)

	bscHintRe = regexp.MustCompile(`(?i)\b(bsc|binance)\b`)
)

// coinNames maps common spelled-out coin names to tickers.
var coinNames = map[string]string{
	"bitcoin":  "BTC",
	"ethereum": "ETH",
	"solana":   "SOL",
	"dogecoin": "DOGE",
	"cardano":  "ADA",
	"ripple":   "XRP",
	"litecoin": "LTC",
	"polygon":  "MATIC",
}

// coinNameOrder fixes the scan order over coinNames so extraction
// never depends on map iteration.
var coinNameOrder = []string{
	"bitcoin", "ethereum", "solana", "dogecoin",
	"cardano", "ripple", "litecoin", "polygon",
}

// noiseTokens are uppercase-looking words that are never tickers.
var noiseTokens = map[string]bool{
	"I": true, "A": true, "THE": true, "IS": true, "AT": true, "OF": true,
	"TO": true, "IN": true, "ON": true, "OK": true, "USD": true, "API": true,
	"AND": true, "FOR": true, "WHAT": true, "HOW": true, "WHY": true,
}

// MatchRules runs the deterministic tier. ok is false when no rule fires.
func MatchRules(text string) (Intent, bool) {
	// 1. Wallet intents: a chain address anywhere outranks everything.
	if addr, network, found := findAddress(text); found {
		params := Params{WalletAddress: addr, Network: network}
		if trackVerbRe.MatchString(text) {
			return Intent{Kind: WalletTrack, Params: params}, true
		}
		return Intent{Kind: WalletQuery, Params: params}, true
	}

	// 2. Trade phrasing.
	if m := tradeRe.FindStringSubmatch(text); m != nil {
		params := Params{
			TradeType: normalizeTradeType(m[1]),
			Symbol:    normalizeSymbol(m[3]),
		}
		params.Amount, _ = strconv.ParseFloat(m[2], 64)
		price, _ := strconv.ParseFloat(strings.ReplaceAll(m[4], ",", ""), 64)
		if params.TradeType == "sell" {
			params.SellPrice = price
			// "sold 1 BTC at $48,000, bought at $45,000" carries the entry too
			if m2 := sellEntryRe.FindStringSubmatch(text); m2 != nil {
				params.BuyPrice, _ = strconv.ParseFloat(strings.ReplaceAll(m2[1], ",", ""), 64)
			}
		} else {
			params.BuyPrice = price
		}
		return Intent{Kind: TradeLog, Params: params}, true
	}
	if tradeSummaryRe.MatchString(text) {
		return Intent{Kind: TradeSummary}, true
	}

	// 3. Market price.
	if priceWordRe.MatchString(text) {
		if sym := findSymbol(text); sym != "" {
			return Intent{Kind: MarketPrice, Params: Params{Symbol: sym}}, true
		}
	}

	// 4. Sentiment, then news.
	if sentimentRe.MatchString(text) {
		return Intent{Kind: MarketSentiment, Params: Params{Symbol: findSymbol(text)}}, true
	}
	if newsRe.MatchString(text) {
		return Intent{Kind: MarketNews, Params: Params{Symbol: findSymbol(text)}}, true
	}

	// 5. Knowledge questions.
	if knowledgeRe.MatchString(text) {
		return Intent{Kind: KnowledgeQuery, Params: Params{Query: strings.TrimSpace(text)}}, true
	}

	return Intent{Kind: None}, false
}

// IsTriviallyConversational reports whether the message is small talk that
// should skip the model fallback entirely.
func IsTriviallyConversational(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}
	if greetingRe.MatchString(trimmed) {
		return true
	}
	// Very short non-question fragments aren't worth a model round trip.
	return len(strings.Fields(trimmed)) <= 2 && !strings.Contains(trimmed, "?")
}

func findAddress(text string) (addr, network string, found bool) {
	if m := evmAddrRe.FindString(text); m != "" {
		network = "eth"
		if bscHintRe.MatchString(text) {
			network = "bsc"
		}
		return m, network, true
	}
	// Base58 strings are ambiguous; require wallet context to avoid matching
	// random long words.
	if walletWordRe.MatchString(text) || trackVerbRe.MatchString(text) {
		if m := solAddrRe.FindString(text); m != "" && !evmAddrRe.MatchString(m) {
			return m, "sol", true
		}
	}
	return "", "", false
}

func findSymbol(text string) string {
	if m := dollarSymRe.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}
	lower := strings.ToLower(text)
	// When two coins are named, the one mentioned first wins.
	bestIdx := -1
	bestSym := ""
	for _, name := range coinNameOrder {
		if i := strings.Index(lower, name); i >= 0 && (bestIdx < 0 || i < bestIdx) {
			bestIdx = i
			bestSym = coinNames[name]
		}
	}
	if bestSym != "" {
		return bestSym
	}
	for _, m := range tickerRe.FindAllString(text, -1) {
		if !noiseTokens[m] {
			return m
		}
	}
	return ""
}

func normalizeSymbol(raw string) string {
	if sym, ok := coinNames[strings.ToLower(raw)]; ok {
		return sym
	}
	return strings.ToUpper(raw)
}

func normalizeTradeType(verb string) string {
	if strings.EqualFold(verb, "sold") {
		return "sell"
	}
	return "buy"
}
