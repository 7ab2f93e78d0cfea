package schema

import (
	"errors"
	"fmt"
	"strings"
)

type Grammar string

const (
	// GrammarSurnameOnly treats everything after the rank as the surname.
	GrammarSurnameOnly Grammar = "surname"
	// GrammarFirstnameSurname reads "Firstname [Middle] Surname" after the rank.
	GrammarFirstnameSurname Grammar = "firstname_surname"
)

var ErrUnknownSchema = errors.New("unknown schema")

type Group struct {
	Name     string   `yaml:"name"`
	Sections []string `yaml:"sections"`
}

// Layout locates the timestamp and the first section column in a raw export
// using spreadsheet letters ("C", "K"). It is only consulted by the ingest layer.
type Layout struct {
	TimestampColumn    string `yaml:"timestamp_column"`
	FirstSectionColumn string `yaml:"first_section_column"`
}

// Schema describes one version of the sign-in form: the section taxonomy in
// column order and how names in it are written.
type Schema struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Sections    []string `yaml:"sections"`
	Grammar     Grammar  `yaml:"grammar"`

	StaffSection     string `yaml:"staff_section"`
	ExecutiveSection string `yaml:"executive_section"`
	// MergedSection holds staff and executives together; parsed rank decides.
	MergedSection   string `yaml:"merged_section"`
	OverflowSection string `yaml:"overflow_section"`
	// CommaSection is the one section whose cells also list names separated
	// by commas. Empty means commas never split.
	CommaSection string `yaml:"comma_section"`

	Groups []Group `yaml:"groups"`
	Layout Layout  `yaml:"layout"`
}

func (s Schema) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("schema name is required")
	}
	if len(s.Sections) == 0 {
		return fmt.Errorf("schema %s: no sections", s.Name)
	}
	seen := map[string]struct{}{}
	for _, label := range s.Sections {
		if strings.TrimSpace(label) == "" {
			return fmt.Errorf("schema %s: blank section label", s.Name)
		}
		if _, dup := seen[label]; dup {
			return fmt.Errorf("schema %s: duplicate section %q", s.Name, label)
		}
		seen[label] = struct{}{}
	}
	switch s.Grammar {
	case GrammarSurnameOnly, GrammarFirstnameSurname:
	default:
		return fmt.Errorf("schema %s: unsupported grammar %q", s.Name, s.Grammar)
	}
	markers := map[string]string{
		"staff_section":     s.StaffSection,
		"executive_section": s.ExecutiveSection,
		"merged_section":    s.MergedSection,
		"overflow_section":  s.OverflowSection,
		"comma_section":     s.CommaSection,
	}
	for field, label := range markers {
		if label == "" {
			continue
		}
		if _, ok := seen[label]; !ok {
			return fmt.Errorf("schema %s: %s %q is not a section", s.Name, field, label)
		}
	}
	if s.MergedSection != "" && (s.MergedSection == s.StaffSection || s.MergedSection == s.ExecutiveSection) {
		return fmt.Errorf("schema %s: merged section must differ from staff and executive sections", s.Name)
	}
	for _, g := range s.Groups {
		if g.Name == "" {
			return fmt.Errorf("schema %s: group without name", s.Name)
		}
		for _, label := range g.Sections {
			if _, ok := seen[label]; !ok {
				return fmt.Errorf("schema %s: group %s references unknown section %q", s.Name, g.Name, label)
			}
		}
	}
	return nil
}
