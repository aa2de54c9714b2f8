package derive

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"pairSwap/internal/model"
)

// ParseIdentity converts a hex string into a token or account identity.
func ParseIdentity(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, model.ErrInvalidIdentity.Wrapf("%q is not a hex address", input)
	}
	id := common.HexToAddress(input)
	if err := ValidateIdentity(id); err != nil {
		return common.Address{}, err
	}
	return id, nil
}
