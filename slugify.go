package soundbite

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/gosimple/slug"
)

const slugSuffixLen = 6

const slugAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewSlug derives a lowercase, URL-safe slug from a post title. A short
// random base36 suffix is appended so posts with identical titles still get
// distinct slugs. Titles that transliterate to nothing (for example, all
// punctuation) fall back to the suffix alone.
func NewSlug(title string) string {
	base := slug.Make(title)
	suffix := randomSuffix(slugSuffixLen)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

func randomSuffix(n int) string {
	max := big.NewInt(int64(len(slugAlphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("soundbite: crypto/rand unavailable: " + err.Error())
		}
		b.WriteByte(slugAlphabet[idx.Int64()])
	}
	return b.String()
}
