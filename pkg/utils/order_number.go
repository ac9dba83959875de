package utils

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

var nowFunc = time.Now

// GenerateOrderNumber returns a human readable order reference in the form
// ORD-<unix millis>-<5 uppercase base36 chars>.
func GenerateOrderNumber() string {
	var sb strings.Builder
	sb.WriteString("ORD-")
	sb.WriteString(strconv.FormatInt(nowFunc().UnixMilli(), 10))
	sb.WriteByte('-')

	max := big.NewInt(int64(len(base36Alphabet)))
	for i := 0; i < 5; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			n = big.NewInt(nowFunc().UnixNano() % int64(len(base36Alphabet)))
		}
		sb.WriteByte(base36Alphabet[n.Int64()])
	}
	return sb.String()
}
