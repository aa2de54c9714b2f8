package replay

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"pairSwap/internal/model"
)

func TestReadOperations(t *testing.T) {
	input := `
{"seq":1,"op":"fund","user":"0xa11ce00000000000000000000000000000000001","mint":"0x00000000000000000000000000000000000000a1","amount":"500"}

{"seq":2,"op":"initialize","token_a":"0x00000000000000000000000000000000000000a1","token_b":"0x00000000000000000000000000000000000000b2"}
{"seq":5,"op":"swap","user":"0xa11ce00000000000000000000000000000000001","token_a":"0x00000000000000000000000000000000000000a1","token_b":"0x00000000000000000000000000000000000000b2","amount_in":"18446744073709551615","is_a_to_b":true}
`
	ops, err := ReadOperations(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, ops, 3)
	require.Equal(t, uint64(500), ops[0].Amount)
	require.Equal(t, model.OpInitialize, ops[1].Op)
	require.Equal(t, uint64(18446744073709551615), ops[2].AmountIn)
	require.True(t, ops[2].IsAToB)
}

func TestReadOperationsRejects(t *testing.T) {
	const (
		a = "0x00000000000000000000000000000000000000a1"
		b = "0x00000000000000000000000000000000000000b2"
		u = "0xa11ce00000000000000000000000000000000001"
	)
	cases := map[string]string{
		"unknown op":   `{"seq":1,"op":"burn","token_a":"` + a + `","token_b":"` + b + `"}`,
		"missing pair": `{"seq":1,"op":"swap","user":"` + u + `"}`,
		"missing user": `{"seq":1,"op":"swap","token_a":"` + a + `","token_b":"` + b + `"}`,
		"zero seq":     `{"seq":0,"op":"initialize","token_a":"` + a + `","token_b":"` + b + `"}`,
		"out of order": `{"seq":2,"op":"initialize","token_a":"` + a + `","token_b":"` + b + `"}` + "\n" +
			`{"seq":2,"op":"swap","user":"` + u + `","token_a":"` + a + `","token_b":"` + b + `"}`,
		"bad json":     `{"seq":1,`,
		"short user":   `{"seq":1,"op":"fund","user":"0x01","mint":"` + a + `","amount":"5"}`,
		"bare amount":  `{"seq":1,"op":"fund","user":"` + u + `","mint":"` + a + `","amount":5}`,
	}
	for name, input := range cases {
		_, err := ReadOperations(strings.NewReader(input))
		require.Error(t, err, name)
	}
}

func TestScheduleGroupsByUnorderedPair(t *testing.T) {
	a := common.HexToAddress("0x0a")
	b := common.HexToAddress("0x0b")
	c := common.HexToAddress("0x0c")
	ops := []model.Operation{
		{Seq: 1, Op: model.OpInitialize, TokenA: a, TokenB: b},
		{Seq: 2, Op: model.OpFund, Mint: a},
		{Seq: 3, Op: model.OpInitialize, TokenA: c, TokenB: a},
		{Seq: 4, Op: model.OpSwap, TokenA: b, TokenB: a},
		{Seq: 5, Op: model.OpFund, Mint: c},
		{Seq: 6, Op: model.OpSwap, TokenA: c, TokenB: a},
	}
	funds, groups := schedule(ops)
	require.Len(t, funds, 2)
	require.Len(t, groups, 2)
	require.Equal(t, []uint64{1, 4}, seqsOf(groups[0]))
	require.Equal(t, []uint64{3, 6}, seqsOf(groups[1]))
}

func seqsOf(ops []model.Operation) []uint64 {
	out := make([]uint64, 0, len(ops))
	for _, op := range ops {
		out = append(out, op.Seq)
	}
	return out
}

func TestScheduleJoinsPairsThroughUserAccounts(t *testing.T) {
	a := common.HexToAddress("0x0a")
	b := common.HexToAddress("0x0b")
	c := common.HexToAddress("0x0c")
	d := common.HexToAddress("0x0d")
	alice := common.HexToAddress("0xa11ce00000000000000000000000000000000001")
	bob := common.HexToAddress("0xb0b0000000000000000000000000000000000002")
	ops := []model.Operation{
		{Seq: 1, Op: model.OpSwap, User: alice, TokenA: a, TokenB: b},
		{Seq: 2, Op: model.OpSwap, User: bob, TokenA: c, TokenB: d},
		{Seq: 3, Op: model.OpAddLiquidity, User: alice, TokenA: b, TokenB: c},
		{Seq: 4, Op: model.OpSwap, User: bob, TokenA: d, TokenB: a},
	}
	_, groups := schedule(ops)
	require.Len(t, groups, 2)
	require.Equal(t, []uint64{1, 3}, seqsOf(groups[0]))
	require.Equal(t, []uint64{2, 4}, seqsOf(groups[1]))

	ops = append(ops, model.Operation{Seq: 5, Op: model.OpRemoveLiquidity, User: bob, TokenA: b, TokenB: c})
	_, groups = schedule(ops)
	require.Len(t, groups, 1)
	require.Equal(t, []uint64{1, 2, 3, 4, 5}, seqsOf(groups[0]))
	require.Equal(t, 4, countPairs(ops))
}
