package redact

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"privascope/store"
)

// ProfileSpec is one profile definition from a YAML import file.
type ProfileSpec struct {
	Name  string     `yaml:"name"`
	Rules []RuleSpec `yaml:"rules"`
}

// RuleSpec is one rule definition from a YAML import file.
type RuleSpec struct {
	Type        string `yaml:"type"`
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
	Active      *bool  `yaml:"active"`
	Sequence    int    `yaml:"sequence"`
}

type profilesFile struct {
	Profiles []ProfileSpec `yaml:"profiles"`
}

// LoadProfilesFile parses a YAML profile definitions file.
func LoadProfilesFile(path string) ([]ProfileSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return parseProfiles(data)
}

func parseProfiles(data []byte) ([]ProfileSpec, error) {
	var file profilesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing profiles YAML: %w", err)
	}
	if len(file.Profiles) == 0 {
		return nil, fmt.Errorf("no profiles found")
	}
	for _, p := range file.Profiles {
		if p.Name == "" {
			return nil, fmt.Errorf("profile without a name")
		}
		for _, r := range p.Rules {
			typ := strings.ToUpper(r.Type)
			if typ != string(store.RuleLiteral) && typ != string(store.RuleRegex) {
				return nil, fmt.Errorf("profile %s: invalid rule type %q", p.Name, r.Type)
			}
		}
	}
	return file.Profiles, nil
}

// ImportProfiles loads a YAML profile file into the store for the given
// owner. Existing profiles with the same name are reused and extended;
// sequence defaults to the rule's position in the file.
func ImportProfiles(s *store.Store, ownerID, path string) (int, error) {
	profiles, err := LoadProfilesFile(path)
	if err != nil {
		return 0, err
	}

	imported := 0
	for _, spec := range profiles {
		profile, err := s.FindProfileByName(ownerID, spec.Name)
		if err != nil {
			return imported, err
		}
		if profile == nil {
			profile, err = s.CreateProfile(ownerID, spec.Name)
			if err != nil {
				return imported, err
			}
		}

		for i, rs := range spec.Rules {
			active := true
			if rs.Active != nil {
				active = *rs.Active
			}
			sequence := rs.Sequence
			if sequence == 0 {
				sequence = i + 1
			}
			rule := &store.Rule{
				ProfileID:   profile.ID,
				Type:        store.RuleType(strings.ToUpper(rs.Type)),
				Pattern:     rs.Pattern,
				Replacement: rs.Replacement,
				IsActive:    active,
				Sequence:    sequence,
			}
			if err := s.CreateRule(rule); err != nil {
				return imported, err
			}
		}
		imported++
	}
	return imported, nil
}
