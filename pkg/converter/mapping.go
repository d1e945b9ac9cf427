// Package converter provides conversion from ZenMoney rows to Beancount transactions.
package converter

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shunichi-ikebuchi/zenmoney-beancount/pkg/beancount"
)

// Default ledger accounts used when the mapping leaves them unset.
const (
	DefaultBaseAccount              = "Assets:ZenMoney"
	DefaultExpenseAccount           = "Expenses:Unknown"
	DefaultIncomeAccount            = "Income:Unknown"
	DefaultCommissionExpenseAccount = "Expenses:Financial:Commissions"
)

// Direction tells whether a category is used for money going out or coming in.
type Direction int

const (
	DirectionExpense Direction = iota
	DirectionIncome
)

func (d Direction) String() string {
	if d == DirectionIncome {
		return "income"
	}
	return "expense"
}

// CategoryTarget is where a ZenMoney category is posted. It is either a
// single account used in both directions, or a pair of accounts chosen by
// direction.
//
// In YAML a simple target is a scalar and a directional one is a mapping:
//
//	categories:
//	  Food / Groceries: Expenses:Food:Groceries
//	  Cashback:
//	    income: Income:Cashback
//	    expense: Expenses:Cashback
type CategoryTarget struct {
	simple      string
	income      string
	expense     string
	directional bool
}

// Simple returns a target that posts to account in both directions.
func Simple(account string) CategoryTarget {
	return CategoryTarget{simple: account}
}

// Directional returns a target that posts incomes and expenses to different accounts.
func Directional(income, expense string) CategoryTarget {
	return CategoryTarget{income: income, expense: expense, directional: true}
}

// IsDirectional reports whether the target depends on the direction.
func (c CategoryTarget) IsDirectional() bool { return c.directional }

// Account returns the account for the direction, or "" when a directional
// target leaves that side unset.
func (c CategoryTarget) Account(dir Direction) string {
	if !c.directional {
		return c.simple
	}
	if dir == DirectionIncome {
		return c.income
	}
	return c.expense
}

// UnmarshalYAML decodes either form of a category target.
func (c *CategoryTarget) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var account string
		if err := value.Decode(&account); err != nil {
			return err
		}
		*c = Simple(account)
		return nil
	case yaml.MappingNode:
		var pair struct {
			Income  string `yaml:"income"`
			Expense string `yaml:"expense"`
		}
		if err := value.Decode(&pair); err != nil {
			return err
		}
		if pair.Income == "" && pair.Expense == "" {
			return fmt.Errorf("line %d: category target needs income or expense", value.Line)
		}
		*c = Directional(pair.Income, pair.Expense)
		return nil
	default:
		return fmt.Errorf("line %d: category target must be an account or an income/expense pair", value.Line)
	}
}

// MarshalYAML encodes the target in the form it was declared.
func (c CategoryTarget) MarshalYAML() (interface{}, error) {
	if !c.directional {
		return c.simple, nil
	}
	return map[string]string{"income": c.income, "expense": c.expense}, nil
}

// Mapping is the immutable configuration of a conversion run.
type Mapping struct {
	AccountMap               map[string]string         `yaml:"accounts"`
	CategoryMap              map[string]CategoryTarget `yaml:"categories"`
	BaseAccount              string                    `yaml:"base_account"`
	DefaultExpense           string                    `yaml:"default_expense"`
	DefaultIncome            string                    `yaml:"default_income"`
	DefaultAccount           string                    `yaml:"default_account"`
	DefaultCommissionExpense string                    `yaml:"default_commission_expense"`
	Flag                     string                    `yaml:"flag"`
}

// LoadMapping reads a mapping from a YAML file and fills in defaults.
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}
	return ParseMapping(data)
}

// ParseMapping decodes a YAML mapping and fills in defaults.
func ParseMapping(data []byte) (*Mapping, error) {
	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// NewMapping builds a mapping in code, filling in defaults.
func NewMapping(accounts map[string]string, categories map[string]CategoryTarget) *Mapping {
	m := &Mapping{AccountMap: accounts, CategoryMap: categories}
	m.applyDefaults()
	return m
}

func (m *Mapping) applyDefaults() {
	if m.AccountMap == nil {
		m.AccountMap = map[string]string{}
	}
	if m.CategoryMap == nil {
		m.CategoryMap = map[string]CategoryTarget{}
	}
	if m.BaseAccount == "" {
		m.BaseAccount = DefaultBaseAccount
	}
	if m.DefaultExpense == "" {
		m.DefaultExpense = DefaultExpenseAccount
	}
	if m.DefaultIncome == "" {
		m.DefaultIncome = DefaultIncomeAccount
	}
	if m.DefaultCommissionExpense == "" {
		m.DefaultCommissionExpense = DefaultCommissionExpenseAccount
	}
	if m.Flag == "" {
		m.Flag = beancount.FlagCleared
	}
}

// Validate checks the flag and the account names of the mapping.
func (m *Mapping) Validate() error {
	var problems []string

	if m.Flag != beancount.FlagCleared && m.Flag != beancount.FlagPending {
		problems = append(problems, fmt.Sprintf("flag must be %q or %q, got %q", beancount.FlagCleared, beancount.FlagPending, m.Flag))
	}

	check := func(what, account string) {
		if account != "" && !validAccount(account) {
			problems = append(problems, fmt.Sprintf("%s: invalid account %q", what, account))
		}
	}
	check("base_account", m.BaseAccount)
	check("default_expense", m.DefaultExpense)
	check("default_income", m.DefaultIncome)
	check("default_account", m.DefaultAccount)
	check("default_commission_expense", m.DefaultCommissionExpense)
	for name, account := range m.AccountMap {
		check(fmt.Sprintf("accounts[%s]", name), account)
	}
	for name, target := range m.CategoryMap {
		check(fmt.Sprintf("categories[%s].income", name), target.Account(DirectionIncome))
		check(fmt.Sprintf("categories[%s].expense", name), target.Account(DirectionExpense))
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("invalid mapping: %s", strings.Join(problems, "; "))
	}
	return nil
}

// validAccount accepts names with at least two non-empty, space-free components.
func validAccount(account string) bool {
	parts := strings.Split(account, ":")
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts {
		if p == "" || strings.ContainsAny(p, " \t") {
			return false
		}
	}
	return true
}

// Account returns the ledger account for a ZenMoney account name. Unmapped
// names go to DefaultAccount, or to a name derived from the ZenMoney one
// when no default is configured.
func (m *Mapping) Account(name string) string {
	if account, ok := m.AccountMap[name]; ok {
		return account
	}
	if m.DefaultAccount != "" {
		return m.DefaultAccount
	}
	return derivedAccount(name)
}

// HasAccount checks if a mapping exists for a ZenMoney account.
func (m *Mapping) HasAccount(name string) bool {
	_, ok := m.AccountMap[name]
	return ok
}

// Category returns the ledger account for a ZenMoney category used in the
// given direction. Unmapped categories, and directional targets without that
// side, go to the direction's default account.
func (m *Mapping) Category(name string, dir Direction) string {
	if target, ok := m.CategoryMap[name]; ok {
		if account := target.Account(dir); account != "" {
			return account
		}
	}
	if dir == DirectionIncome {
		return m.DefaultIncome
	}
	return m.DefaultExpense
}

// HasCategory checks if a mapping exists for a ZenMoney category.
func (m *Mapping) HasCategory(name string) bool {
	_, ok := m.CategoryMap[name]
	return ok
}

// derivedAccount turns "MainBank - PLN" into "Assets:MainBank:PLN".
func derivedAccount(name string) string {
	safe := strings.ReplaceAll(name, " ", "")
	safe = strings.ReplaceAll(safe, "-", ":")
	if safe == "" {
		safe = "Unknown"
	}
	return "Assets:" + safe
}
