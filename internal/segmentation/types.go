// Package segmentation composes customer selection criteria into a single
// predicate and resolves the matching customer ids.
//
// Categories combine with AND. Alternatives inside one category (several
// age bands) combine with OR. A category with nothing selected imposes no
// constraint.
package segmentation

import (
	"fmt"
	"strings"

	"github.com/ignite/commerce-insights/internal/analytics"
	"github.com/ignite/commerce-insights/internal/domain"
)

// Criteria is a multi-category selection as captured from the user.
type Criteria struct {
	Types     []domain.CustomerType `json:"types"`
	AgeRanges []string              `json:"age_ranges"`
	Genders   []domain.Gender       `json:"genders"`
}

// Validate rejects unknown band labels, genders and customer types.
func (c Criteria) Validate() error {
	_, err := c.normalize()
	return err
}

// normalize resolves aliases and drops duplicate selections, keeping the
// first occurrence.
func (c Criteria) normalize() (Criteria, error) {
	var out Criteria

	seenType := map[domain.CustomerType]bool{}
	for _, t := range c.Types {
		t = domain.CustomerType(strings.ToLower(strings.TrimSpace(string(t))))
		if t != domain.CustomerNew && t != domain.CustomerReturning {
			return Criteria{}, fmt.Errorf("%w: customer type %q", ErrInvalidCriteria, t)
		}
		if !seenType[t] {
			seenType[t] = true
			out.Types = append(out.Types, t)
		}
	}

	seenBand := map[string]bool{}
	for _, label := range c.AgeRanges {
		label = normalizeBandLabel(label)
		if _, err := analytics.LookupAgeBand(label); err != nil {
			return Criteria{}, fmt.Errorf("%w: %w", ErrInvalidCriteria, err)
		}
		if !seenBand[label] {
			seenBand[label] = true
			out.AgeRanges = append(out.AgeRanges, label)
		}
	}

	seenGender := map[domain.Gender]bool{}
	for _, g := range c.Genders {
		parsed, err := ParseGender(string(g))
		if err != nil {
			return Criteria{}, err
		}
		if !seenGender[parsed] {
			seenGender[parsed] = true
			out.Genders = append(out.Genders, parsed)
		}
	}
	return out, nil
}

// ParseGender accepts "M", "F", "male" or "female" in any case.
func ParseGender(s string) (domain.Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male":
		return domain.GenderMale, nil
	case "f", "female":
		return domain.GenderFemale, nil
	}
	return "", fmt.Errorf("%w: gender %q", ErrInvalidCriteria, s)
}

// normalizeBandLabel maps typographic dashes to the ASCII hyphen used by
// the band table.
func normalizeBandLabel(s string) string {
	s = strings.TrimSpace(s)
	return strings.NewReplacer("–", "-", "—", "-", " ", "").Replace(s)
}
