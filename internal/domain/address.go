package domain

import (
	"encoding/hex"
	"strings"
)

// Address is a ledger account address in canonical form: lowercase, 0x-prefixed,
// 20 bytes of hex.
type Address string

const addressHexLen = 40

// ZeroAddress is the all-zero address. It is never a valid manager.
const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

// ParseAddress validates and normalizes an address string.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", Invalid("address", "%q must start with 0x", s)
	}
	body := s[2:]
	if len(body) != addressHexLen {
		return "", Invalid("address", "%q must have %d hex digits", s, addressHexLen)
	}
	if _, err := hex.DecodeString(body); err != nil {
		return "", Invalid("address", "%q is not hex", s)
	}
	return Address("0x" + strings.ToLower(body)), nil
}

// MustParseAddress panics on invalid input. Meant for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromBytes formats the last 20 bytes of b as an address.
func AddressFromBytes(b []byte) Address {
	if len(b) > addressHexLen/2 {
		b = b[len(b)-addressHexLen/2:]
	}
	return Address("0x" + hex.EncodeToString(b))
}

func (a Address) String() string { return string(a) }

func (a Address) IsZero() bool { return a == "" || a == ZeroAddress }
