package model

import "github.com/ethereum/go-ethereum/common"

// TokenAccount holds a balance of one mint on behalf of an owner.
type TokenAccount struct {
	Address common.Address `json:"address"`
	Mint    common.Address `json:"mint"`
	Owner   common.Address `json:"owner"`
	Balance uint64         `json:"balance,string"`
}

// Mint is the issuance record of a fungible token.
type Mint struct {
	Address   common.Address `json:"address"`
	Authority common.Address `json:"authority"`
	Supply    uint64         `json:"supply,string"`
}
