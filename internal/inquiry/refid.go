package inquiry

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"time"
)

const (
	referencePrefix = "INQ-"
	referenceAlpha  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	referenceSuffix = 6
)

// ReferencePattern matches every id produced by NewReferenceID.
var ReferencePattern = regexp.MustCompile(`^INQ-\d{8}-[A-Z0-9]{6}$`)

// NewReferenceID returns INQ-<YYYYMMDD>-<6 base-36 chars> for the UTC date of now.
//
// The suffix is random; uniqueness is not checked against the store.
func NewReferenceID(now time.Time) (string, error) {
	suffix := make([]byte, referenceSuffix)
	max := big.NewInt(int64(len(referenceAlpha)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		suffix[i] = referenceAlpha[n.Int64()]
	}
	return referencePrefix + now.UTC().Format("20060102") + "-" + string(suffix), nil
}
