// Package derive computes the deterministic addresses of a pool's accounts
// from labelled seeds.
package derive

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"pairSwap/internal/model"
)

// Seed labels. Each label is followed by the two mint identities in pool order.
const (
	LabelPool          = "pool"
	LabelAuthority     = "pool_authority"
	LabelTokenAVault   = "token_a_vault"
	LabelTokenBVault   = "token_b_vault"
	LabelLPTokenMint   = "lp_token_mint"
	labelAssociated    = "associated_token"
	derivedAddressMark = "ProgramDerivedAddress"
	maxSeedLen         = 32
)

// DefaultProgramID seeds derivation when none is configured.
var DefaultProgramID = common.HexToAddress("0x5a11c0de5a11c0de5a11c0de5a11c0de5a11c0de")

// PoolAccounts are the addresses owned by one pool.
type PoolAccounts struct {
	Pool          common.Address `json:"pool"`
	Authority     common.Address `json:"authority"`
	TokenAVault   common.Address `json:"token_a_vault"`
	TokenBVault   common.Address `json:"token_b_vault"`
	LPTokenMint   common.Address `json:"lp_token_mint"`
	AuthorityBump uint8          `json:"authority_bump"`
}

// Deriver derives addresses under one program identity. It holds no state
// beyond the program id and is safe for concurrent use.
type Deriver struct {
	programID common.Address
}

func NewDeriver(programID common.Address) Deriver {
	if programID == (common.Address{}) {
		programID = DefaultProgramID
	}
	return Deriver{programID: programID}
}

// ProgramID returns the program identity mixed into every derivation.
func (d Deriver) ProgramID() common.Address {
	return d.programID
}

// CreateAddress derives the address for seeds completed by bump. It fails
// when the candidate lies on the secp256k1 curve.
func (d Deriver) CreateAddress(bump uint8, seeds ...[]byte) (common.Address, error) {
	for _, seed := range seeds {
		if len(seed) > maxSeedLen {
			return common.Address{}, model.ErrInvalidIdentity.Wrapf("seed longer than %d bytes", maxSeedLen)
		}
	}
	digest := d.digest(bump, seeds)
	if onCurve(digest) {
		return common.Address{}, model.ErrInvalidIdentity.Wrapf("bump %d yields an on-curve address", bump)
	}
	return common.BytesToAddress(digest[12:]), nil
}

// FindAddress searches bumps from 255 down and returns the first viable address.
func (d Deriver) FindAddress(seeds ...[]byte) (common.Address, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		addr, err := d.CreateAddress(uint8(bump), seeds...)
		if err == nil {
			return addr, uint8(bump), nil
		}
	}
	return common.Address{}, 0, model.ErrInvalidIdentity.Wrap("no viable bump")
}

// PoolAccounts derives every account of the pool for (tokenA, tokenB). The
// order of the identities is significant.
func (d Deriver) PoolAccounts(tokenA, tokenB common.Address) (PoolAccounts, error) {
	if err := ValidateIdentity(tokenA); err != nil {
		return PoolAccounts{}, err
	}
	if err := ValidateIdentity(tokenB); err != nil {
		return PoolAccounts{}, err
	}

	var (
		out PoolAccounts
		err error
	)
	if out.Pool, _, err = d.FindAddress(pairSeeds(LabelPool, tokenA, tokenB)...); err != nil {
		return PoolAccounts{}, err
	}
	if out.Authority, out.AuthorityBump, err = d.FindAddress(pairSeeds(LabelAuthority, tokenA, tokenB)...); err != nil {
		return PoolAccounts{}, err
	}
	if out.TokenAVault, _, err = d.FindAddress(pairSeeds(LabelTokenAVault, tokenA, tokenB)...); err != nil {
		return PoolAccounts{}, err
	}
	if out.TokenBVault, _, err = d.FindAddress(pairSeeds(LabelTokenBVault, tokenA, tokenB)...); err != nil {
		return PoolAccounts{}, err
	}
	if out.LPTokenMint, _, err = d.FindAddress(pairSeeds(LabelLPTokenMint, tokenA, tokenB)...); err != nil {
		return PoolAccounts{}, err
	}
	return out, nil
}

// PoolAddress derives only the pool record address.
func (d Deriver) PoolAddress(tokenA, tokenB common.Address) (common.Address, error) {
	if err := ValidateIdentity(tokenA); err != nil {
		return common.Address{}, err
	}
	if err := ValidateIdentity(tokenB); err != nil {
		return common.Address{}, err
	}
	addr, _, err := d.FindAddress(pairSeeds(LabelPool, tokenA, tokenB)...)
	return addr, err
}

// Authority re-derives the pool authority from its stored bump.
func (d Deriver) Authority(tokenA, tokenB common.Address, bump uint8) (common.Address, error) {
	return d.CreateAddress(bump, pairSeeds(LabelAuthority, tokenA, tokenB)...)
}

// AssociatedAccount returns the canonical token account of owner for mint.
func AssociatedAccount(owner, mint common.Address) common.Address {
	digest := crypto.Keccak256([]byte(labelAssociated), owner.Bytes(), mint.Bytes())
	return common.BytesToAddress(digest[12:])
}

// ValidateIdentity rejects malformed (zero) identities.
func ValidateIdentity(id common.Address) error {
	if id == (common.Address{}) {
		return model.ErrInvalidIdentity.Wrap("zero address")
	}
	return nil
}

func (d Deriver) digest(bump uint8, seeds [][]byte) []byte {
	parts := make([][]byte, 0, len(seeds)+3)
	parts = append(parts, seeds...)
	parts = append(parts, []byte{bump}, d.programID.Bytes(), []byte(derivedAddressMark))
	return crypto.Keccak256(parts...)
}

func pairSeeds(label string, tokenA, tokenB common.Address) [][]byte {
	return [][]byte{[]byte(label), tokenA.Bytes(), tokenB.Bytes()}
}
