package dexscreener

// Wire types for the DexScreener latest/dex API.

type searchResponse struct {
	SchemaVersion string `json:"schemaVersion"`
	Pairs         []pair `json:"pairs"`
}

type pair struct {
	ChainID       string     `json:"chainId"`
	DexID         string     `json:"dexId"`
	PairAddress   string     `json:"pairAddress"`
	BaseToken     token      `json:"baseToken"`
	QuoteToken    token      `json:"quoteToken"`
	PriceUSD      string     `json:"priceUsd"` // decimal string, may be empty
	Volume        volumes    `json:"volume"`
	PriceChange   changes    `json:"priceChange"`
	Liquidity     *liquidity `json:"liquidity"` // absent for some pairs
	PairCreatedAt int64      `json:"pairCreatedAt"` // unix ms
}

type token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type volumes struct {
	H24 float64 `json:"h24"`
}

type changes struct {
	// DexScreener reports percentages (50 = +50%).
	H24 float64 `json:"h24"`
}

type liquidity struct {
	USD float64 `json:"usd"`
}
