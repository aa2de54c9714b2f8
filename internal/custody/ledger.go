// Package custody applies token movements under authority rules. Every
// mutation needs a signer: the owner of the debited account, or the
// authority of the mint. Vaults and LP mints are created with the pool
// authority as owner, so only a caller that can re-derive that authority
// can move them.
package custody

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"pairSwap/internal/amm"
	"pairSwap/internal/derive"
	"pairSwap/internal/model"
	"pairSwap/internal/storage"
)

// Ledger mutates custody state inside one storage transaction.
type Ledger struct {
	tx storage.Tx
}

func NewLedger(tx storage.Tx) *Ledger {
	return &Ledger{tx: tx}
}

// CreateMint provisions a mint with zero supply. The address must not hold a
// mint or a token account already.
func (l *Ledger) CreateMint(ctx context.Context, address, authority common.Address) error {
	if _, err := l.tx.Account(ctx, address); err == nil {
		return model.ErrAccountExists.Wrapf("%s is a token account", address.Hex())
	} else if !errors.Is(err, model.ErrAccountNotFound) {
		return err
	}
	return l.tx.CreateMint(ctx, model.Mint{Address: address, Authority: authority})
}

// CreateAccount provisions an empty token account. The address must not hold
// a token account or a mint already.
func (l *Ledger) CreateAccount(ctx context.Context, address, mint, owner common.Address) error {
	if _, err := l.tx.Mint(ctx, address); err == nil {
		return model.ErrAccountExists.Wrapf("%s is a mint", address.Hex())
	} else if !errors.Is(err, model.ErrMintNotFound) {
		return err
	}
	return l.tx.CreateAccount(ctx, model.TokenAccount{Address: address, Mint: mint, Owner: owner})
}

// EnsureAssociatedAccount returns owner's canonical account for mint,
// creating it when missing.
func (l *Ledger) EnsureAssociatedAccount(ctx context.Context, owner, mint common.Address) (common.Address, error) {
	address := derive.AssociatedAccount(owner, mint)
	account, err := l.tx.Account(ctx, address)
	if errors.Is(err, model.ErrAccountNotFound) {
		err = l.tx.CreateAccount(ctx, model.TokenAccount{Address: address, Mint: mint, Owner: owner})
		if err == nil {
			return address, nil
		}
		if !errors.Is(err, model.ErrAccountExists) {
			return common.Address{}, err
		}
		// Created by a concurrent transaction since the lookup.
		account, err = l.tx.Account(ctx, address)
	}
	if err != nil {
		return common.Address{}, err
	}
	if account.Mint != mint {
		return common.Address{}, model.ErrMintMismatch.Wrapf("account %s", address.Hex())
	}
	return address, nil
}

// Balance returns owner's balance of mint, zero when no account exists.
func (l *Ledger) Balance(ctx context.Context, owner, mint common.Address) (uint64, error) {
	account, err := l.tx.Account(ctx, derive.AssociatedAccount(owner, mint))
	if errors.Is(err, model.ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// Supply returns the outstanding supply of mint.
func (l *Ledger) Supply(ctx context.Context, mint common.Address) (uint64, error) {
	m, err := l.tx.Mint(ctx, mint)
	if err != nil {
		return 0, err
	}
	return m.Supply, nil
}

// Transfer moves amount between two accounts of the same mint.
func (l *Ledger) Transfer(ctx context.Context, from, to common.Address, amount uint64, signer common.Address) error {
	src, err := l.tx.Account(ctx, from)
	if err != nil {
		return err
	}
	dst, err := l.tx.Account(ctx, to)
	if err != nil {
		return err
	}
	if src.Owner != signer {
		return model.ErrUnauthorized.Wrapf("%s cannot debit %s", signer.Hex(), from.Hex())
	}
	if src.Mint != dst.Mint {
		return model.ErrMintMismatch.Wrapf("transfer %s -> %s", from.Hex(), to.Hex())
	}
	if src.Balance < amount {
		return model.ErrInsufficientFunds.Wrapf("account %s holds %d, needs %d", from.Hex(), src.Balance, amount)
	}
	if from == to {
		return nil
	}
	if dst.Balance, err = amm.Add(dst.Balance, amount); err != nil {
		return err
	}
	src.Balance -= amount
	if err := l.tx.PutAccount(ctx, src); err != nil {
		return err
	}
	return l.tx.PutAccount(ctx, dst)
}

// MintTo issues amount of mint into the account to.
func (l *Ledger) MintTo(ctx context.Context, mint, to common.Address, amount uint64, signer common.Address) error {
	m, err := l.tx.Mint(ctx, mint)
	if err != nil {
		return err
	}
	if m.Authority != signer {
		return model.ErrUnauthorized.Wrapf("%s is not the authority of mint %s", signer.Hex(), mint.Hex())
	}
	dst, err := l.tx.Account(ctx, to)
	if err != nil {
		return err
	}
	if dst.Mint != mint {
		return model.ErrMintMismatch.Wrapf("account %s", to.Hex())
	}
	if m.Supply, err = amm.Add(m.Supply, amount); err != nil {
		return err
	}
	if dst.Balance, err = amm.Add(dst.Balance, amount); err != nil {
		return err
	}
	if err := l.tx.PutMint(ctx, m); err != nil {
		return err
	}
	return l.tx.PutAccount(ctx, dst)
}

// Burn destroys amount of mint held in the account from.
func (l *Ledger) Burn(ctx context.Context, mint, from common.Address, amount uint64, signer common.Address) error {
	m, err := l.tx.Mint(ctx, mint)
	if err != nil {
		return err
	}
	src, err := l.tx.Account(ctx, from)
	if err != nil {
		return err
	}
	if src.Mint != mint {
		return model.ErrMintMismatch.Wrapf("account %s", from.Hex())
	}
	if src.Owner != signer {
		return model.ErrUnauthorized.Wrapf("%s cannot burn from %s", signer.Hex(), from.Hex())
	}
	if src.Balance < amount {
		return model.ErrInsufficientFunds.Wrapf("account %s holds %d, burns %d", from.Hex(), src.Balance, amount)
	}
	if m.Supply < amount {
		return model.ErrInsufficientLiquidity.Wrapf("mint %s supply %d, burns %d", mint.Hex(), m.Supply, amount)
	}
	src.Balance -= amount
	m.Supply -= amount
	if err := l.tx.PutAccount(ctx, src); err != nil {
		return err
	}
	return l.tx.PutMint(ctx, m)
}

// Fund creates mint under authority if needed and issues amount to owner's
// associated account. authority must be the mint's authority when the mint
// already exists. It exists for test setups and replay seeding.
func (l *Ledger) Fund(ctx context.Context, mint, authority, owner common.Address, amount uint64) error {
	m, err := l.tx.Mint(ctx, mint)
	switch {
	case errors.Is(err, model.ErrMintNotFound):
		if err := l.CreateMint(ctx, mint, authority); err != nil {
			return err
		}
	case err != nil:
		return err
	case m.Authority != authority:
		return model.ErrUnauthorized.Wrapf("%s is not the authority of mint %s", authority.Hex(), mint.Hex())
	}
	account, err := l.EnsureAssociatedAccount(ctx, owner, mint)
	if err != nil {
		return err
	}
	return l.MintTo(ctx, mint, account, amount, authority)
}
