package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pairSwap/internal/model"
	"pairSwap/internal/storage"
)

// Store provides Postgres persistence for pools and custody state.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Backend = (*Store)(nil)

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Atomic runs fn inside one SQL transaction. Rows read through the Tx are
// locked until commit, so operations on the same pool serialize on the
// pool row while distinct pools proceed in parallel.
func (s *Store) Atomic(ctx context.Context, fn func(storage.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx, lock: true})
	})
}

// View runs fn inside a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(storage.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{AccessMode: pgx.ReadOnly}, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

type pgTx struct {
	tx   pgx.Tx
	lock bool
}

func (t *pgTx) suffix() string {
	if t.lock {
		return " FOR UPDATE"
	}
	return ""
}

const poolColumns = `address, authority, token_a_mint, token_b_mint, token_a_vault, token_b_vault,
	lp_token_mint, reserve_a::text, reserve_b::text, fee_numerator, authority_bump`

func (t *pgTx) Pool(ctx context.Context, address common.Address) (model.Pool, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+poolColumns+` FROM pools WHERE address=$1`+t.suffix(), address.Hex())
	pool, err := scanPool(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Pool{}, model.ErrPoolNotFound.Wrapf("pool %s", address.Hex())
	}
	return pool, err
}

func (t *pgTx) Pools(ctx context.Context) ([]model.Pool, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+poolColumns+` FROM pools ORDER BY address`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Pool
	for rows.Next() {
		pool, err := scanPool(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pool)
	}
	return out, rows.Err()
}

// CreatePool inserts a new pool record. A record at the same address, or for
// the same unordered mint pair, makes it fail with ErrPoolAlreadyExists;
// a concurrent insert of the same pool blocks until the other transaction
// ends and then conflicts.
func (t *pgTx) CreatePool(ctx context.Context, pool model.Pool) error {
	tag, err := t.tx.Exec(ctx, `
		INSERT INTO pools (
			address, authority, token_a_mint, token_b_mint, token_a_vault, token_b_vault,
			lp_token_mint, reserve_a, reserve_b, fee_numerator, authority_bump, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, ($8::text)::numeric, ($9::text)::numeric, $10, $11, now(), now())
		ON CONFLICT DO NOTHING
	`, poolArgs(pool)...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPoolAlreadyExists.Wrapf("pool %s", pool.Address.Hex())
	}
	return nil
}

// PutPool inserts or updates a pool record.
func (t *pgTx) PutPool(ctx context.Context, pool model.Pool) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO pools (
			address, authority, token_a_mint, token_b_mint, token_a_vault, token_b_vault,
			lp_token_mint, reserve_a, reserve_b, fee_numerator, authority_bump, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, ($8::text)::numeric, ($9::text)::numeric, $10, $11, now(), now())
		ON CONFLICT (address)
		DO UPDATE SET
			reserve_a = EXCLUDED.reserve_a,
			reserve_b = EXCLUDED.reserve_b,
			fee_numerator = EXCLUDED.fee_numerator,
			updated_at = now()
	`, poolArgs(pool)...)
	return err
}

func poolArgs(pool model.Pool) []any {
	return []any{
		pool.Address.Hex(),
		pool.Authority.Hex(),
		pool.TokenAMint.Hex(),
		pool.TokenBMint.Hex(),
		pool.TokenAVault.Hex(),
		pool.TokenBVault.Hex(),
		pool.LPTokenMint.Hex(),
		strconv.FormatUint(pool.ReserveA, 10),
		strconv.FormatUint(pool.ReserveB, 10),
		int64(pool.FeeNumerator),
		int16(pool.AuthorityBump),
	}
}

func (t *pgTx) Account(ctx context.Context, address common.Address) (model.TokenAccount, error) {
	var (
		addr, mint, owner, balance string
	)
	row := t.tx.QueryRow(ctx, `SELECT address, mint, owner, balance::text FROM token_accounts WHERE address=$1`+t.suffix(), address.Hex())
	if err := row.Scan(&addr, &mint, &owner, &balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.TokenAccount{}, model.ErrAccountNotFound.Wrapf("account %s", address.Hex())
		}
		return model.TokenAccount{}, err
	}
	value, err := parseAmount(balance)
	if err != nil {
		return model.TokenAccount{}, err
	}
	return model.TokenAccount{
		Address: common.HexToAddress(addr),
		Mint:    common.HexToAddress(mint),
		Owner:   common.HexToAddress(owner),
		Balance: value,
	}, nil
}

// CreateAccount inserts a new token account, failing with ErrAccountExists
// when the address is taken.
func (t *pgTx) CreateAccount(ctx context.Context, account model.TokenAccount) error {
	tag, err := t.tx.Exec(ctx, `
		INSERT INTO token_accounts (address, mint, owner, balance, created_at, updated_at)
		VALUES ($1, $2, $3, ($4::text)::numeric, now(), now())
		ON CONFLICT (address) DO NOTHING
	`,
		account.Address.Hex(),
		account.Mint.Hex(),
		account.Owner.Hex(),
		strconv.FormatUint(account.Balance, 10),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAccountExists.Wrapf("account %s", account.Address.Hex())
	}
	return nil
}

func (t *pgTx) PutAccount(ctx context.Context, account model.TokenAccount) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO token_accounts (address, mint, owner, balance, created_at, updated_at)
		VALUES ($1, $2, $3, ($4::text)::numeric, now(), now())
		ON CONFLICT (address)
		DO UPDATE SET balance = EXCLUDED.balance, updated_at = now()
	`,
		account.Address.Hex(),
		account.Mint.Hex(),
		account.Owner.Hex(),
		strconv.FormatUint(account.Balance, 10),
	)
	return err
}

func (t *pgTx) Mint(ctx context.Context, address common.Address) (model.Mint, error) {
	var addr, authority, supply string
	row := t.tx.QueryRow(ctx, `SELECT address, authority, supply::text FROM mints WHERE address=$1`+t.suffix(), address.Hex())
	if err := row.Scan(&addr, &authority, &supply); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Mint{}, model.ErrMintNotFound.Wrapf("mint %s", address.Hex())
		}
		return model.Mint{}, err
	}
	value, err := parseAmount(supply)
	if err != nil {
		return model.Mint{}, err
	}
	return model.Mint{
		Address:   common.HexToAddress(addr),
		Authority: common.HexToAddress(authority),
		Supply:    value,
	}, nil
}

// CreateMint inserts a new mint, failing with ErrAccountExists when the
// address is taken.
func (t *pgTx) CreateMint(ctx context.Context, mint model.Mint) error {
	tag, err := t.tx.Exec(ctx, `
		INSERT INTO mints (address, authority, supply, created_at, updated_at)
		VALUES ($1, $2, ($3::text)::numeric, now(), now())
		ON CONFLICT (address) DO NOTHING
	`,
		mint.Address.Hex(),
		mint.Authority.Hex(),
		strconv.FormatUint(mint.Supply, 10),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAccountExists.Wrapf("mint %s", mint.Address.Hex())
	}
	return nil
}

func (t *pgTx) PutMint(ctx context.Context, mint model.Mint) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO mints (address, authority, supply, created_at, updated_at)
		VALUES ($1, $2, ($3::text)::numeric, now(), now())
		ON CONFLICT (address)
		DO UPDATE SET supply = EXCLUDED.supply, updated_at = now()
	`,
		mint.Address.Hex(),
		mint.Authority.Hex(),
		strconv.FormatUint(mint.Supply, 10),
	)
	return err
}

func scanPool(row pgx.Row) (model.Pool, error) {
	var (
		address, authority, tokenA, tokenB, vaultA, vaultB, lpMint string
		reserveA, reserveB                                         string
		fee                                                        int64
		bump                                                       int16
	)
	if err := row.Scan(&address, &authority, &tokenA, &tokenB, &vaultA, &vaultB, &lpMint, &reserveA, &reserveB, &fee, &bump); err != nil {
		return model.Pool{}, err
	}
	ra, err := parseAmount(reserveA)
	if err != nil {
		return model.Pool{}, err
	}
	rb, err := parseAmount(reserveB)
	if err != nil {
		return model.Pool{}, err
	}
	return model.Pool{
		Address:       common.HexToAddress(address),
		Authority:     common.HexToAddress(authority),
		TokenAMint:    common.HexToAddress(tokenA),
		TokenBMint:    common.HexToAddress(tokenB),
		TokenAVault:   common.HexToAddress(vaultA),
		TokenBVault:   common.HexToAddress(vaultB),
		LPTokenMint:   common.HexToAddress(lpMint),
		ReserveA:      ra,
		ReserveB:      rb,
		FeeNumerator:  uint64(fee),
		AuthorityBump: uint8(bump),
	}, nil
}

func parseAmount(value string) (uint64, error) {
	v, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid stored amount %q: %w", value, err)
	}
	return v, nil
}
