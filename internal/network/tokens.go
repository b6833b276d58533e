package network

// SupportedToken is a static catalog entry. Everything here is immutable at
// runtime; current prices live in the price service, with DefaultPrice as
// the fallback when the upstream price feed is unavailable.
type SupportedToken struct {
	Symbol       string
	Mint         string
	DevnetMint   string
	Native       bool
	DefaultPrice string
	Image        string
	Decimals     uint8
}

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// SupportedTokens is the catalog of tokens the wallet tracks. Order matters:
// balance reports follow catalog order regardless of fetch completion order.
var SupportedTokens = []SupportedToken{
	{
		Symbol:       "SOL",
		Mint:         "So11111111111111111111111111111111111111112",
		DevnetMint:   "So11111111111111111111111111111111111111112",
		Native:       true,
		DefaultPrice: "180",
		Image:        "https://upload.wikimedia.org/wikipedia/commons/3/34/Solana_cryptocurrency_two.jpg",
		Decimals:     9,
	},
	{
		Symbol:       "USDC",
		Mint:         "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		DevnetMint:   "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU",
		Native:       false,
		DefaultPrice: "1",
		Image:        "https://encrypted-tbn0.gstatic.com/images?q=tbn:ANd9GcT1vAKYEl0YffTpWSxrqEi_gmUsl-0BuXSKMQ&s",
		Decimals:     6,
	},
	{
		Symbol: "USDT",
		Mint:   "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB",
		// No devnet deployment; MintFor reports a ConfigError there and the
		// aggregator degrades the balance to zero.
		DevnetMint:   "",
		Native:       false,
		DefaultPrice: "1",
		Image:        "https://encrypted-tbn0.gstatic.com/images?q=tbn:ANd9GcQvSxrpym7ij1Hf6zQOltcDORlrJGyj1kPf3A&s",
		Decimals:     6,
	},
}

// TokenSymbols returns the catalog symbols in order, for price feed queries.
func TokenSymbols() []string {
	out := make([]string, len(SupportedTokens))
	for i, t := range SupportedTokens {
		out[i] = t.Symbol
	}
	return out
}
