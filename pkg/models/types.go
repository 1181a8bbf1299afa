package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ID is a Gaia source identifier. The same value identifies an object in
// Gaia EDR3 and DR3.
type ID int64

// ErrInvalidID is returned when a catalog key or query cannot be read as an ID.
var ErrInvalidID = errors.New("invalid gaia source id")

// ParseID parses an identifier given as a decimal integer string. Keys that
// were written out as floats by a dataframe ("12345.0") are accepted as long
// as the fractional part is zero.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidID)
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if hasFrac && strings.Trim(frac, "0") != "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}

	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return ID(n), nil
}

// String returns the decimal form of the identifier.
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Verdict is the tri-state outcome of a pollution check. The zero value is
// Unknown, and the constants are declared in increasing strength.
type Verdict int8

const (
	Unknown Verdict = iota
	NotPolluted
	Polluted
)

// Persisted codes, as written to is_polluted tables.
const (
	CodeUnknown     = -1
	CodeNotPolluted = 0
	CodePolluted    = 1
)

var verdictNames = map[Verdict]string{
	Unknown:     "unknown",
	NotPolluted: "not_polluted",
	Polluted:    "polluted",
}

// String returns the lower-case name of the verdict.
func (v Verdict) String() string {
	if name, ok := verdictNames[v]; ok {
		return name
	}
	return fmt.Sprintf("verdict(%d)", int8(v))
}

// Valid reports whether v is one of the three declared verdicts.
func (v Verdict) Valid() bool {
	_, ok := verdictNames[v]
	return ok
}

// Stronger reports whether v outranks o: Polluted > NotPolluted > Unknown.
func (v Verdict) Stronger(o Verdict) bool {
	return v > o
}

// Code returns the persisted integer form (1, 0, -1).
func (v Verdict) Code() int {
	switch v {
	case Polluted:
		return CodePolluted
	case NotPolluted:
		return CodeNotPolluted
	default:
		return CodeUnknown
	}
}

// MaxVerdict returns the strongest of the given verdicts, Unknown if none.
func MaxVerdict(verdicts ...Verdict) Verdict {
	best := Unknown
	for _, v := range verdicts {
		if v.Stronger(best) {
			best = v
		}
	}
	return best
}

// VerdictFromCode converts a persisted code back into a Verdict.
func VerdictFromCode(code int) (Verdict, error) {
	switch code {
	case CodePolluted:
		return Polluted, nil
	case CodeNotPolluted:
		return NotPolluted, nil
	case CodeUnknown:
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("invalid verdict code %d", code)
}

// ParseVerdict accepts either the verdict name or its persisted code.
func ParseVerdict(s string) (Verdict, error) {
	s = strings.TrimSpace(s)
	for v, name := range verdictNames {
		if strings.EqualFold(s, name) {
			return v, nil
		}
	}
	code, err := strconv.Atoi(s)
	if err != nil {
		return Unknown, fmt.Errorf("invalid verdict %q", s)
	}
	return VerdictFromCode(code)
}

// MarshalText encodes the verdict by name, so verdicts read naturally in
// JSON values and map keys.
func (v Verdict) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", v)
	}
	return []byte(v.String()), nil
}

// UnmarshalText decodes a verdict name or code.
func (v *Verdict) UnmarshalText(text []byte) error {
	parsed, err := ParseVerdict(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// CatalogName names one of the external reference catalogs.
type CatalogName string

// Catalogs consulted for prior classifications.
const (
	CatalogGF21SDSS CatalogName = "gf21sdss" // Gentile Fusillo+21 x SDSS spectral classes
	CatalogMWDD     CatalogName = "mwdd"     // Montreal White Dwarf Database spectral types
	CatalogPEWDD    CatalogName = "pewdd"    // Planetary Enriched White Dwarf Database members
)

// Result is the classification of a single object.
type Result struct {
	RunID   uuid.UUID               `json:"run_id,omitzero"`
	ID      ID                      `json:"gaia_id"`
	Verdict Verdict                 `json:"verdict"`
	Sources map[CatalogName]Verdict `json:"sources,omitempty"` // per-catalog verdicts
}
