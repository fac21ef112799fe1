package lrwn

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

type MacVersion int

const (
	LoRaWAN1_0_0 MacVersion = iota
	LoRaWAN1_0_1
	LoRaWAN1_0_2
	LoRaWAN1_0_3
	LoRaWAN1_0_4
	LoRaWAN1_1_0
)

var macVersions = []string{"1.0.0", "1.0.1", "1.0.2", "1.0.3", "1.0.4", "1.1.0"}

// ParseMacVersion accepts "1.0.3", "v1.0.3" and "LORAWAN_1_0_3".
func ParseMacVersion(s string) (MacVersion, error) {
	v := strings.TrimPrefix(strings.TrimPrefix(strings.ToUpper(s), "LORAWAN_"), "V")
	v = strings.ReplaceAll(v, "_", ".")
	for i, mv := range macVersions {
		if mv == v {
			return MacVersion(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mac version: %s", s)
}

func (v MacVersion) String() string {
	if int(v) < 0 || int(v) >= len(macVersions) {
		return fmt.Sprintf("MacVersion(%d)", int(v))
	}
	return macVersions[v]
}

// Constant returns the enum name as used in the API, e.g. LORAWAN_1_0_3
func (v MacVersion) Constant() string {
	return "LORAWAN_" + strings.ReplaceAll(v.String(), ".", "_")
}

// Compare returns -1, 0 or +1 like semver.Compare.
func (v MacVersion) Compare(other MacVersion) int {
	return semver.Compare("v"+v.String(), "v"+other.String())
}

// AtLeast reports if v is the given version string or newer.
func (v MacVersion) AtLeast(version string) bool {
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	return semver.Compare("v"+v.String(), version) >= 0
}

func (v MacVersion) MarshalText() ([]byte, error) {
	return []byte(v.Constant()), nil
}

func (v *MacVersion) UnmarshalText(text []byte) error {
	parsed, err := ParseMacVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

type RegParamsRevision int

const (
	RegParamsA RegParamsRevision = iota
	RegParamsB
	RegParamsRP002_1_0_0
	RegParamsRP002_1_0_1
	RegParamsRP002_1_0_2
	RegParamsRP002_1_0_3
	RegParamsRP002_1_0_4
)

var regParamsRevisions = []string{
	"A", "B", "RP002_1_0_0", "RP002_1_0_1", "RP002_1_0_2", "RP002_1_0_3", "RP002_1_0_4",
}

func ParseRegParamsRevision(s string) (RegParamsRevision, error) {
	v := strings.ReplaceAll(strings.ReplaceAll(strings.ToUpper(s), "-", "_"), ".", "_")
	for i, r := range regParamsRevisions {
		if r == v {
			return RegParamsRevision(i), nil
		}
	}
	return 0, fmt.Errorf("unknown regional parameters revision: %s", s)
}

func (r RegParamsRevision) String() string {
	if int(r) < 0 || int(r) >= len(regParamsRevisions) {
		return fmt.Sprintf("RegParamsRevision(%d)", int(r))
	}
	return regParamsRevisions[r]
}

func (r RegParamsRevision) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *RegParamsRevision) UnmarshalText(text []byte) error {
	parsed, err := ParseRegParamsRevision(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

type DeviceClass int

const (
	ClassA DeviceClass = iota
	ClassB
	ClassC
)

func (c DeviceClass) String() string {
	switch c {
	case ClassA:
		return "A"
	case ClassB:
		return "B"
	case ClassC:
		return "C"
	}
	return fmt.Sprintf("DeviceClass(%d)", int(c))
}
