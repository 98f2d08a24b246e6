package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Hash returns the hex SHA-256 of data. File cache paths and gallery page
// fingerprints are built from it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// digest returns "<prefix>:<hash>" over fields. Each field is length
// prefixed so that ("ab", "c") and ("a", "bc") differ.
func digest(prefix string, fields ...string) string {
	var buf []byte
	for _, f := range fields {
		buf = strconv.AppendInt(buf, int64(len(f)), 10)
		buf = append(buf, ':')
		buf = append(buf, f...)
	}
	return prefix + ":" + Hash(buf)
}

// pixels formats a geometry value for a key; -1 precision keeps it exact.
func pixels(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
