package poll

import (
	"math/big"
	"time"
)

func scriptNow() time.Time { return time.Now() }

func boolToBigInt(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}
