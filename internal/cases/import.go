package cases

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// importFile is the YAML document shape accepted by ImportFile.
type importFile struct {
	Cases []importCase `yaml:"cases"`
}

type importCase struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Priority    string       `yaml:"priority"`
	Tags        string       `yaml:"tags"`
	Steps       []importStep `yaml:"steps"`
}

type importStep struct {
	Action      string         `yaml:"action"`
	LocatorType string         `yaml:"locator_type"`
	Locator     string         `yaml:"locator"`
	Params      map[string]any `yaml:"params"`
	Expected    string         `yaml:"expected"`
	Description string         `yaml:"description"`
}

// ImportFile loads case definitions from a YAML file and persists them.
// Returns the created cases.
func (s *Store) ImportFile(ctx context.Context, path string) ([]*TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading import file: %w", err)
	}

	var doc importFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}

	var created []*TestCase
	for i, ic := range doc.Cases {
		if ic.Name == "" {
			return created, fmt.Errorf("case %d: name is required", i+1)
		}

		tc := &TestCase{
			Name:        ic.Name,
			Description: ic.Description,
			Priority:    ic.Priority,
			Tags:        ic.Tags,
		}

		for j, is := range ic.Steps {
			if is.Action == "" {
				return created, fmt.Errorf("case %q step %d: action is required", ic.Name, j+1)
			}

			params := ""
			if len(is.Params) > 0 {
				raw, err := json.Marshal(is.Params)
				if err != nil {
					return created, fmt.Errorf("case %q step %d: encoding params: %w", ic.Name, j+1, err)
				}
				params = string(raw)
			}

			tc.Steps = append(tc.Steps, TestStep{
				Order:          j + 1,
				ActionType:     is.Action,
				LocatorType:    is.LocatorType,
				Locator:        is.Locator,
				Params:         params,
				ExpectedResult: is.Expected,
				Description:    is.Description,
			})
		}

		if err := s.Create(ctx, tc); err != nil {
			return created, fmt.Errorf("creating case %q: %w", ic.Name, err)
		}
		created = append(created, tc)
	}

	return created, nil
}
