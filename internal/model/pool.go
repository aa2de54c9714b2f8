package model

import "github.com/ethereum/go-ethereum/common"

// Pool is the persistent record for one token pair.
type Pool struct {
	Address       common.Address `json:"address"`
	Authority     common.Address `json:"authority"`
	TokenAMint    common.Address `json:"token_a_mint"`
	TokenBMint    common.Address `json:"token_b_mint"`
	TokenAVault   common.Address `json:"token_a_vault"`
	TokenBVault   common.Address `json:"token_b_vault"`
	LPTokenMint   common.Address `json:"lp_token_mint"`
	ReserveA      uint64         `json:"reserve_a,string"`
	ReserveB      uint64         `json:"reserve_b,string"`
	FeeNumerator  uint64         `json:"fee_numerator"`
	AuthorityBump uint8          `json:"authority_bump"`
}

// Empty reports whether the pool holds no reserves on either side.
func (p Pool) Empty() bool {
	return p.ReserveA == 0 && p.ReserveB == 0
}

// Reserves returns (reserveIn, reserveOut) for a swap direction.
func (p Pool) Reserves(isAToB bool) (uint64, uint64) {
	if isAToB {
		return p.ReserveA, p.ReserveB
	}
	return p.ReserveB, p.ReserveA
}

// Vaults returns (vaultIn, vaultOut) for a swap direction.
func (p Pool) Vaults(isAToB bool) (common.Address, common.Address) {
	if isAToB {
		return p.TokenAVault, p.TokenBVault
	}
	return p.TokenBVault, p.TokenAVault
}

// Mints returns (mintIn, mintOut) for a swap direction.
func (p Pool) Mints(isAToB bool) (common.Address, common.Address) {
	if isAToB {
		return p.TokenAMint, p.TokenBMint
	}
	return p.TokenBMint, p.TokenAMint
}

// PoolView is a pool record together with its LP supply.
type PoolView struct {
	Pool
	LPSupply uint64 `json:"lp_supply,string"`
}
