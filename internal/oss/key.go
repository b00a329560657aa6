package oss

import (
	"crypto/rand"
	"encoding/hex"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	keyPrefix     = "uploads/audio/"
	maxSlugLength = 40
)

// ObjectKey derives a unique storage key from an original filename:
// uploads/audio/{epochMillis}-{8hexRandom}[-{slug}][.{ext}]
func ObjectKey(filename string) string {
	var b strings.Builder
	b.WriteString(keyPrefix)
	b.WriteString(strconv.FormatInt(time.Now().UnixMilli(), 10))
	b.WriteString("-")
	b.WriteString(randomHex(4))

	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if slug := Slugify(base); slug != "" {
		b.WriteString("-")
		b.WriteString(slug)
	}
	if ext != "" {
		b.WriteString(ext)
	}
	return b.String()
}

// Slugify lower-cases the basename, collapses any run of non-alphanumeric
// characters into a single hyphen, trims edge hyphens, and truncates to 40
// characters.
func Slugify(base string) string {
	base = strings.ToLower(base)

	var b strings.Builder
	lastHyphen := false
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = strings.Trim(slug[:maxSlugLength], "-")
	}
	return slug
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process is in serious trouble;
		// a timestamp suffix keeps keys unique enough to carry on.
		return strconv.FormatInt(time.Now().UnixNano()&0xffffffff, 16)
	}
	return hex.EncodeToString(buf)
}
