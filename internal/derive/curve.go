package derive

import (
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
)

var curveB = big.NewInt(7)

// onCurve reports whether digest, read as an x-coordinate, has a point on
// secp256k1. Such an address could have a private key, so it is not usable
// as a program-owned address.
func onCurve(digest []byte) bool {
	p := crypto.S256().Params().P
	x := new(big.Int).SetBytes(digest)
	if x.Cmp(p) >= 0 {
		return false
	}
	// y^2 = x^3 + 7 (mod p)
	rhs := new(big.Int).Exp(x, big.NewInt(3), p)
	rhs.Add(rhs, curveB)
	rhs.Mod(rhs, p)
	if rhs.Sign() == 0 {
		return true
	}
	return big.Jacobi(rhs, p) == 1
}
