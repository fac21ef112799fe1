package lrwn

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// EUI64 is a 64 bit extended unique identifier (DevEUI, JoinEUI, gateway id).
type EUI64 [8]byte

// DevAddr is the 32 bit device address assigned by the network.
type DevAddr [4]byte

func ParseEUI64(s string) (EUI64, error) {
	var ret EUI64
	err := decodeHex(s, ret[:])
	return ret, err
}

func (e EUI64) String() string {
	return hex.EncodeToString(e[:])
}

func (e EUI64) IsZero() bool {
	return e == EUI64{}
}

func (e EUI64) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *EUI64) UnmarshalText(text []byte) error {
	return decodeHex(string(text), e[:])
}

func ParseDevAddr(s string) (DevAddr, error) {
	var ret DevAddr
	err := decodeHex(s, ret[:])
	return ret, err
}

func (a DevAddr) String() string {
	return hex.EncodeToString(a[:])
}

func (a DevAddr) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *DevAddr) UnmarshalText(text []byte) error {
	return decodeHex(string(text), a[:])
}

func decodeHex(s string, dst []byte) error {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	if len(s) != 2*len(dst) {
		return fmt.Errorf("expected %d hex characters, got %d", 2*len(dst), len(s))
	}
	if _, err := hex.Decode(dst, []byte(s)); err != nil {
		return fmt.Errorf("invalid hex value %q: %w", s, err)
	}
	return nil
}
