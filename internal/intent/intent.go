package intent

// Kind is the closed set of recognized message intents. Exactly one applies
// per message.
type Kind int

const (
	None Kind = iota
	WalletTrack
	WalletQuery
	MarketPrice
	MarketSentiment
	MarketNews
	TradeLog
	TradeSummary
	KnowledgeQuery
	GeneralChat
)

var kindNames = map[Kind]string{
	None:            "none",
	WalletTrack:     "wallet_track",
	WalletQuery:     "wallet_query",
	MarketPrice:     "market_price",
	MarketSentiment: "market_sentiment",
	MarketNews:      "market_news",
	TradeLog:        "trade_log",
	TradeSummary:    "trade_summary",
	KnowledgeQuery:  "knowledge_query",
	GeneralChat:     "general_chat",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// KindFromLabel maps a wire label back to a Kind. Unknown labels map to
// GeneralChat, matching the classifier's failure default.
func KindFromLabel(label string) Kind {
	for k, s := range kindNames {
		if s == label {
			return k
		}
	}
	return GeneralChat
}

// Labels returns every label the model-backed fallback may emit.
func Labels() []string {
	out := make([]string, 0, len(kindNames))
	for k := None; k <= GeneralChat; k++ {
		out = append(out, kindNames[k])
	}
	return out
}

// Params carries intent-specific values extracted from the message.
type Params struct {
	WalletAddress string
	Network       string // eth, bsc, sol
	Symbol        string
	TradeType     string // buy or sell
	Amount        float64
	BuyPrice      float64
	SellPrice     float64
	Query         string // free text for knowledge questions
}

// Intent is a tagged variant: a Kind plus its extracted parameters.
type Intent struct {
	Kind   Kind
	Params Params
}
