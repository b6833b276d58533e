package models

// TokenBalance is one catalog token with its resolved balance for an
// address. Balance and USDBalance are fixed-point strings (6 and 2 decimal
// places), rounded only at report time.
type TokenBalance struct {
	Symbol     string `json:"name"`
	Mint       string `json:"mint"`
	Native     bool   `json:"native"`
	Price      string `json:"price"`
	Image      string `json:"image"`
	Decimals   uint8  `json:"decimals"`
	Balance    string `json:"balance"`
	USDBalance string `json:"usdBalance"`
}

// TokenReport aggregates every supported token's balance for an address on
// one network. Token ordering follows the static catalog.
type TokenReport struct {
	Tokens       []TokenBalance `json:"tokens"`
	TotalBalance string         `json:"totalBalance"`
}
