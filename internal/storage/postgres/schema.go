package postgres

// Schema is the DDL for the pool record store. Amounts are NUMERIC(20,0)
// so the full unsigned 64-bit range round-trips.
const Schema = `
CREATE TABLE IF NOT EXISTS pools (
	address        TEXT PRIMARY KEY,
	authority      TEXT NOT NULL,
	token_a_mint   TEXT NOT NULL,
	token_b_mint   TEXT NOT NULL,
	token_a_vault  TEXT NOT NULL,
	token_b_vault  TEXT NOT NULL,
	lp_token_mint  TEXT NOT NULL,
	reserve_a      NUMERIC(20,0) NOT NULL CHECK (reserve_a >= 0),
	reserve_b      NUMERIC(20,0) NOT NULL CHECK (reserve_b >= 0),
	fee_numerator  BIGINT NOT NULL CHECK (fee_numerator BETWEEN 0 AND 10000),
	authority_bump SMALLINT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL,
	CHECK (token_a_mint <> token_b_mint)
);

CREATE UNIQUE INDEX IF NOT EXISTS pools_pair_idx
	ON pools (LEAST(token_a_mint, token_b_mint), GREATEST(token_a_mint, token_b_mint));

CREATE TABLE IF NOT EXISTS mints (
	address    TEXT PRIMARY KEY,
	authority  TEXT NOT NULL,
	supply     NUMERIC(20,0) NOT NULL CHECK (supply >= 0),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS token_accounts (
	address    TEXT PRIMARY KEY,
	mint       TEXT NOT NULL,
	owner      TEXT NOT NULL,
	balance    NUMERIC(20,0) NOT NULL CHECK (balance >= 0),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS token_accounts_owner_idx ON token_accounts (owner, mint);
`
