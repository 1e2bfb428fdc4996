package entity

import "math/big"

// Coin is an amount of a single denomination in minimal (integer) units,
// as carried on the wire by the chain's bank queries.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// Balance is a decoded holding of one denomination for the session address.
type Balance struct {
	Denom            string   `json:"denom"`
	Amount           *big.Int `json:"-"`
	FormattedBalance string   `json:"formattedBalance"`
}
