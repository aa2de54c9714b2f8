package derive

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"pairSwap/internal/model"
)

var (
	tokenA = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	tokenB = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func TestPoolAccountsDeterministic(t *testing.T) {
	d := NewDeriver(DefaultProgramID)
	first, err := d.PoolAccounts(tokenA, tokenB)
	require.NoError(t, err)
	second, err := NewDeriver(DefaultProgramID).PoolAccounts(tokenA, tokenB)
	require.NoError(t, err)
	require.Equal(t, first, second)

	distinct := map[common.Address]struct{}{
		first.Pool:        {},
		first.Authority:   {},
		first.TokenAVault: {},
		first.TokenBVault: {},
		first.LPTokenMint: {},
	}
	require.Len(t, distinct, 5)

	addr, err := d.PoolAddress(tokenA, tokenB)
	require.NoError(t, err)
	require.Equal(t, first.Pool, addr)
}

func TestPoolAccountsOrderSensitive(t *testing.T) {
	d := NewDeriver(DefaultProgramID)
	ab, err := d.PoolAccounts(tokenA, tokenB)
	require.NoError(t, err)
	ba, err := d.PoolAccounts(tokenB, tokenA)
	require.NoError(t, err)
	require.NotEqual(t, ab.Pool, ba.Pool)
	require.NotEqual(t, ab.Authority, ba.Authority)
}

func TestProgramIDSeparatesPools(t *testing.T) {
	other := NewDeriver(common.HexToAddress("0x0000000000000000000000000000000000c0ffee"))
	a, err := NewDeriver(DefaultProgramID).PoolAddress(tokenA, tokenB)
	require.NoError(t, err)
	b, err := other.PoolAddress(tokenA, tokenB)
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	require.Equal(t, DefaultProgramID, NewDeriver(common.Address{}).ProgramID())
}

func TestAuthorityRederivesFromBump(t *testing.T) {
	d := NewDeriver(DefaultProgramID)
	accounts, err := d.PoolAccounts(tokenA, tokenB)
	require.NoError(t, err)

	authority, err := d.Authority(tokenA, tokenB, accounts.AuthorityBump)
	require.NoError(t, err)
	require.Equal(t, accounts.Authority, authority)

	for bump := int(accounts.AuthorityBump) + 1; bump <= 255; bump++ {
		_, err := d.Authority(tokenA, tokenB, uint8(bump))
		require.True(t, errors.Is(err, model.ErrInvalidIdentity), "bump %d above the canonical one must be on-curve", bump)
	}
}

func TestFindAddressSkipsOnCurveCandidates(t *testing.T) {
	d := NewDeriver(DefaultProgramID)
	for i := byte(0); i < 32; i++ {
		seed := []byte{i}
		addr, bump, err := d.FindAddress(seed)
		require.NoError(t, err)
		require.False(t, onCurve(d.digest(bump, [][]byte{seed})))
		again, err := d.CreateAddress(bump, seed)
		require.NoError(t, err)
		require.Equal(t, addr, again)
	}
}

func TestCreateAddressRejectsLongSeeds(t *testing.T) {
	_, err := NewDeriver(DefaultProgramID).CreateAddress(255, make([]byte, 33))
	require.ErrorIs(t, err, model.ErrInvalidIdentity)
}

func TestZeroIdentityRejected(t *testing.T) {
	d := NewDeriver(DefaultProgramID)
	_, err := d.PoolAccounts(common.Address{}, tokenB)
	require.ErrorIs(t, err, model.ErrInvalidIdentity)
	_, err = d.PoolAddress(tokenA, common.Address{})
	require.ErrorIs(t, err, model.ErrInvalidIdentity)
}

func TestAssociatedAccount(t *testing.T) {
	owner := common.HexToAddress("0xa11ce00000000000000000000000000000000001")
	require.Equal(t, AssociatedAccount(owner, tokenA), AssociatedAccount(owner, tokenA))
	require.NotEqual(t, AssociatedAccount(owner, tokenA), AssociatedAccount(owner, tokenB))
	require.NotEqual(t, AssociatedAccount(owner, tokenA), AssociatedAccount(tokenA, owner))
}

func TestParseIdentity(t *testing.T) {
	id, err := ParseIdentity("  0x00000000000000000000000000000000000000A1 ")
	require.NoError(t, err)
	require.Equal(t, tokenA, id)

	for _, input := range []string{"", "0x01", "nothex", "0x0000000000000000000000000000000000000000"} {
		_, err := ParseIdentity(input)
		require.ErrorIs(t, err, model.ErrInvalidIdentity, input)
	}
}
