package persistence

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/angelmondragon/staffdesk/pkg/enums"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// Dataset is the bootstrap data installed by Seed. Passwords are plaintext
// here and hashed on install.
type Dataset struct {
	Accounts    []SeedAccount    `yaml:"accounts"`
	Departments []SeedDepartment `yaml:"departments"`
}

type SeedAccount struct {
	FirstName string     `yaml:"firstName"`
	LastName  string     `yaml:"lastName"`
	Email     string     `yaml:"email"`
	Password  string     `yaml:"password"`
	Role      enums.Role `yaml:"role"`
	Verified  bool       `yaml:"verified"`
}

type SeedDepartment struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// DefaultDataset returns the embedded bootstrap dataset.
func DefaultDataset() (Dataset, error) {
	return parseDataset(defaultSeed)
}

// LoadDataset reads a dataset from path, or the embedded one when path is empty.
func LoadDataset(path string) (Dataset, error) {
	if path == "" {
		return DefaultDataset()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("reading seed file: %w", err)
	}
	return parseDataset(raw)
}

func parseDataset(raw []byte) (Dataset, error) {
	var ds Dataset
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&ds); err != nil {
		return Dataset{}, fmt.Errorf("parsing seed dataset: %w", err)
	}
	for i, acc := range ds.Accounts {
		if acc.Email == "" || acc.Password == "" {
			return Dataset{}, fmt.Errorf("seed account %d needs an email and a password", i)
		}
		if !acc.Role.IsValid() {
			return Dataset{}, fmt.Errorf("seed account %s has invalid role %q", acc.Email, acc.Role)
		}
	}
	return ds, nil
}
