package analyzer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rg0now/wd-pollution-survey/pkg/catalog"
	"github.com/rg0now/wd-pollution-survey/pkg/models"
)

// Lookup resolves an identifier to a verdict against a single catalog.
type Lookup interface {
	Catalog() models.CatalogName
	Lookup(id models.ID) models.Verdict
}

// Label sentinels that carry no usable classification.
var (
	// GF21 x SDSS classes for unreliable or featureless spectra.
	specClassUnknown = []string{"Unreli", "WD", "UNKN"}

	// MWDD types: classification not determined, bare degenerate, unknown.
	specTypeUnknown = []string{"CND", "D", "?"}

	// MWDD substrings marking an uncertain metal detection or a composite
	// (binary) classification.
	specTypeDisqualifying = []string{"Z?", "Z:", "+", "/"}
)

// SpecClassVerdict classifies a GF21 x SDSS specClass label. A trailing
// "Z:" marks a marginal metal detection and is not taken as evidence.
func SpecClassVerdict(label string) models.Verdict {
	mustHaveLabel(models.CatalogGF21SDSS, label)

	marginal := strings.HasSuffix(label, "Z:")
	if strings.Contains(label, "Z") && !marginal {
		return models.Polluted
	}
	if marginal || slices.Contains(specClassUnknown, label) {
		return models.Unknown
	}
	return models.NotPolluted
}

// SpecTypeVerdict classifies an MWDD spectype label.
//
// A metal-line type is polluted unless it is uncertain ("DZ?", "DZ:d") or
// composite ("DA+DZ", "DZ/DC"). Uncertain metal types are unknown; composite
// metal types fall through to the generic rules and end up not polluted.
func SpecTypeVerdict(label string) models.Verdict {
	mustHaveLabel(models.CatalogMWDD, label)

	if strings.Contains(label, "Z") {
		if !containsAny(label, specTypeDisqualifying) {
			return models.Polluted
		}
		if strings.ContainsAny(label, "?:") {
			return models.Unknown
		}
	}
	if slices.Contains(specTypeUnknown, label) {
		return models.Unknown
	}
	return models.NotPolluted
}

// mustHaveLabel panics on an empty label. Loaders never store one, so
// reaching this is a programming error rather than an unknown verdict.
func mustHaveLabel(name models.CatalogName, label string) {
	if label == "" {
		panic(fmt.Sprintf("analyzer: empty %s label reached classification", name))
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// labelLookup applies a label rule to a label catalog.
type labelLookup struct {
	name   models.CatalogName
	labels *catalog.Labels
	rule   func(string) models.Verdict
}

func (l labelLookup) Catalog() models.CatalogName {
	return l.name
}

func (l labelLookup) Lookup(id models.ID) models.Verdict {
	label, ok := l.labels.Label(id)
	if !ok {
		return models.Unknown
	}
	return l.rule(label)
}

// membershipLookup treats presence as proof of pollution and absence as no
// evidence at all.
type membershipLookup struct {
	name    models.CatalogName
	members *catalog.Membership
}

func (m membershipLookup) Catalog() models.CatalogName {
	return m.name
}

func (m membershipLookup) Lookup(id models.ID) models.Verdict {
	if m.members.Contains(id) {
		return models.Polluted
	}
	return models.Unknown
}

// NewSpecClassLookup returns the GF21 x SDSS lookup.
func NewSpecClassLookup(labels *catalog.Labels) Lookup {
	return labelLookup{name: models.CatalogGF21SDSS, labels: labels, rule: SpecClassVerdict}
}

// NewSpecTypeLookup returns the MWDD lookup.
func NewSpecTypeLookup(labels *catalog.Labels) Lookup {
	return labelLookup{name: models.CatalogMWDD, labels: labels, rule: SpecTypeVerdict}
}

// NewMembershipLookup returns the PEWDD lookup.
func NewMembershipLookup(members *catalog.Membership) Lookup {
	return membershipLookup{name: models.CatalogPEWDD, members: members}
}
