package payment

import (
	"crypto/rand"
	"strconv"
	"strings"
	"time"
)

const (
	referencePrefix  = "ebook_"
	referenceSuffix  = 9
	referenceAlpha   = "0123456789abcdefghijklmnopqrstuvwxyz"
	referenceMaxByte = 252 // largest multiple of 36 below 256
)

// GenerateReference returns ebook_<unix millis>_<9 base36 chars>. Collisions are not checked.
func GenerateReference() string {
	var b strings.Builder
	b.Grow(len(referencePrefix) + 14 + referenceSuffix)
	b.WriteString(referencePrefix)
	b.WriteString(strconv.FormatInt(time.Now().UnixMilli(), 10))
	b.WriteByte('_')
	b.WriteString(randomBase36(referenceSuffix))
	return b.String()
}

func randomBase36(n int) string {
	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			panic("payment: crypto/rand unavailable: " + err.Error())
		}
		for _, c := range buf {
			if c >= referenceMaxByte {
				continue
			}
			out = append(out, referenceAlpha[int(c)%len(referenceAlpha)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out)
}
