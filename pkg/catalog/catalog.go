// Package catalog loads the external white dwarf catalogs into immutable,
// deduplicated lookup tables keyed by Gaia source ID.
package catalog

import (
	"errors"
	"fmt"

	"github.com/rg0now/wd-pollution-survey/pkg/models"
)

// Load errors.
var (
	ErrMissingColumn = errors.New("column not found in header")
	ErrMissingLabel  = errors.New("row has an identifier but no label")
)

// Labels maps identifiers to a free-text classification label. It is never
// modified after loading and is safe for concurrent reads.
type Labels struct {
	name   models.CatalogName
	labels map[models.ID]string
}

// NewLabels builds a label table from an already deduplicated mapping.
// Empty labels are rejected.
func NewLabels(name models.CatalogName, labels map[models.ID]string) (*Labels, error) {
	m := make(map[models.ID]string, len(labels))
	for id, l := range labels {
		if l == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingLabel, id)
		}
		m[id] = l
	}
	return &Labels{name: name, labels: m}, nil
}

// Name returns the catalog name.
func (l *Labels) Name() models.CatalogName {
	return l.name
}

// Label returns the label of id and whether id is present.
func (l *Labels) Label(id models.ID) (string, bool) {
	if l == nil {
		return "", false
	}
	label, ok := l.labels[id]
	return label, ok
}

// Len returns the number of distinct identifiers.
func (l *Labels) Len() int {
	if l == nil {
		return 0
	}
	return len(l.labels)
}

// Membership is a positive-only catalog: presence is the only information.
type Membership struct {
	name    models.CatalogName
	members map[models.ID]struct{}
}

// NewMembership builds a membership set from identifiers.
func NewMembership(name models.CatalogName, ids []models.ID) *Membership {
	m := make(map[models.ID]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return &Membership{name: name, members: m}
}

// Name returns the catalog name.
func (m *Membership) Name() models.CatalogName {
	return m.name
}

// Contains reports whether id is listed.
func (m *Membership) Contains(id models.ID) bool {
	if m == nil {
		return false
	}
	_, ok := m.members[id]
	return ok
}

// Len returns the number of listed identifiers.
func (m *Membership) Len() int {
	if m == nil {
		return 0
	}
	return len(m.members)
}

// Set is the read-only catalog context shared by every classification.
// A nil member behaves as an empty catalog.
type Set struct {
	GF21SDSS *Labels
	MWDD     *Labels
	PEWDD    *Membership
}
