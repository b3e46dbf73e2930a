package tables

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// Role prefixes for generated field names. Downstream merge logic switches
// on these by string prefix, so they are fixed vocabulary.
const (
	PrefixHeader = "header_"
	PrefixAdd    = "add_"
	PrefixStub   = "stub_"
	PrefixGStub  = "gstub_"
	PrefixInput  = "input_"
	PrefixData   = "data_"
)

// RoleOf returns the role prefix of a field name, or "" if the name carries
// no recognized prefix.
func RoleOf(name string) string {
	for _, p := range []string{PrefixHeader, PrefixAdd, PrefixStub, PrefixGStub, PrefixInput, PrefixData} {
		if strings.HasPrefix(name, p) {
			return p
		}
	}
	return ""
}

func isStubRole(name string) bool {
	r := RoleOf(name)
	return r == PrefixStub || r == PrefixGStub
}

// IDSource produces unique field-name suffixes for one table build. It is
// passed explicitly so table builds stay independent and tests can inject a
// deterministic sequence.
type IDSource interface {
	Next() string
}

// RandomIDs returns an IDSource producing random 8-hex-digit suffixes,
// unique for the lifetime of the source.
func RandomIDs() IDSource {
	return &randomSource{seen: make(map[string]bool)}
}

type randomSource struct {
	seen map[string]bool
	n    int
}

func (s *randomSource) Next() string {
	for {
		var b [4]byte
		if _, err := rand.Read(b[:]); err != nil {
			s.n++
			return fmt.Sprintf("%08x", s.n)
		}
		id := hex.EncodeToString(b[:])
		if !s.seen[id] {
			s.seen[id] = true
			return id
		}
	}
}

// SequenceIDs returns an IDSource producing "000001", "000002", ... for
// deterministic tests.
func SequenceIDs() IDSource {
	return &sequenceSource{}
}

type sequenceSource struct {
	n int
}

func (s *sequenceSource) Next() string {
	s.n++
	return fmt.Sprintf("%06d", s.n)
}
