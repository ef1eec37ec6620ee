package stacksh

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"strconv"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

var hashes = map[string]func() hash.Hash{
	"sha256": sha256.New,
	"sha3":   sha3.New256,
	"blake2b": func() hash.Hash {
		// New256 only fails for keys longer than 64 bytes
		h, _ := blake2b.New256(nil)
		return h
	},
}

// RegisterHashLib registers the hash builtin.
// Module: hash
func (s *Session) RegisterHashLib() {
	// "text" "algo" hash → lowercase hex digest
	s.RegisterOperatorInModule("hash", "hash", Sig(func(c *Context) error {
		newHash, ok := hashes[c.Str(1)]
		if !ok {
			return c.Errorf(EvalError, "unknown hash algorithm %s (want sha256, sha3 or blake2b)", strconv.Quote(c.Str(1)))
		}
		h := newHash()
		h.Write([]byte(Serialize(c.Args[0])))
		c.Push(Str(hex.EncodeToString(h.Sum(nil))))
		return nil
	}, KindAny, KindStr))
}
