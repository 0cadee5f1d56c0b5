// Package config loads the static business tables of the service: companies,
// cards and cardholders. A Config is read once at start and never modified.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/moonventures/cardpurchases/internal/installment"
	"github.com/moonventures/cardpurchases/internal/models"
	"gopkg.in/yaml.v3"
)

// Company is a group company and the storage folder its receipts go to.
type Company struct {
	Name   string `yaml:"name"`
	Folder string `yaml:"folder"`
}

// Card is a corporate card and the company it bills.
type Card struct {
	Name    string `yaml:"name"`
	Company string `yaml:"company"`
}

// Config is the immutable business configuration.
type Config struct {
	Timezone        string              `yaml:"timezone"`
	DefaultDueDay   int                 `yaml:"default_due_day"`
	RequireReceipt  *bool               `yaml:"require_receipt"`
	MaxInstallments int                 `yaml:"max_installments"`
	Companies       []Company           `yaml:"companies"`
	Cards           []Card              `yaml:"cards"`
	Cardholders     []models.Cardholder `yaml:"cardholders"`

	location *time.Location
}

// Load reads, defaults and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse builds a Config from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	cfg.location = loc
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Timezone == "" {
		cfg.Timezone = "America/Sao_Paulo"
	}
	if cfg.DefaultDueDay == 0 {
		cfg.DefaultDueDay = installment.DefaultDueDay
	}
	if cfg.RequireReceipt == nil {
		required := true
		cfg.RequireReceipt = &required
	}
	if cfg.MaxInstallments == 0 {
		cfg.MaxInstallments = installment.MaxCount
	}
	for i := range cfg.Companies {
		if cfg.Companies[i].Folder == "" {
			cfg.Companies[i].Folder = slug(cfg.Companies[i].Name)
		}
	}
	for i := range cfg.Cardholders {
		if cfg.Cardholders[i].DueDay == 0 {
			cfg.Cardholders[i].DueDay = cfg.DefaultDueDay
		}
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.DefaultDueDay < 1 || cfg.DefaultDueDay > 31 {
		errs = append(errs, fmt.Errorf("default_due_day %d out of range 1..31", cfg.DefaultDueDay))
	}
	if cfg.MaxInstallments < 1 || cfg.MaxInstallments > installment.MaxCount {
		errs = append(errs, fmt.Errorf("max_installments %d out of range 1..%d", cfg.MaxInstallments, installment.MaxCount))
	}

	companies := make(map[string]bool)
	for _, c := range cfg.Companies {
		if c.Name == "" {
			errs = append(errs, errors.New("company without name"))
			continue
		}
		if companies[c.Name] {
			errs = append(errs, fmt.Errorf("duplicate company %q", c.Name))
		}
		companies[c.Name] = true
	}

	cards := make(map[string]bool)
	for _, c := range cfg.Cards {
		if c.Name == "" {
			errs = append(errs, errors.New("card without name"))
			continue
		}
		if cards[c.Name] {
			errs = append(errs, fmt.Errorf("duplicate card %q", c.Name))
		}
		cards[c.Name] = true
		if !companies[c.Company] {
			errs = append(errs, fmt.Errorf("card %q references unknown company %q", c.Name, c.Company))
		}
	}

	holders := make(map[string]bool)
	for _, h := range cfg.Cardholders {
		if h.ID == "" {
			errs = append(errs, errors.New("cardholder without id"))
			continue
		}
		if holders[h.ID] {
			errs = append(errs, fmt.Errorf("duplicate cardholder %q", h.ID))
		}
		holders[h.ID] = true
		if h.Company != "" && !companies[h.Company] {
			errs = append(errs, fmt.Errorf("cardholder %q references unknown company %q", h.ID, h.Company))
		}
		if h.CreditLimit.IsNegative() {
			errs = append(errs, fmt.Errorf("cardholder %q has a negative credit limit", h.ID))
		}
		if h.DueDay < 1 || h.DueDay > 31 {
			errs = append(errs, fmt.Errorf("cardholder %q due_day %d out of range 1..31", h.ID, h.DueDay))
		}
	}

	return errors.Join(errs...)
}

func slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

// Location is the time zone purchase dates are recorded in.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// ReceiptRequired reports whether a purchase needs a receipt file.
func (c *Config) ReceiptRequired() bool {
	return c.RequireReceipt == nil || *c.RequireReceipt
}

// Card looks up a card by name.
func (c *Config) Card(name string) (Card, bool) {
	for _, card := range c.Cards {
		if card.Name == name {
			return card, true
		}
	}
	return Card{}, false
}

// Company looks up a company by name.
func (c *Config) Company(name string) (Company, bool) {
	for _, co := range c.Companies {
		if co.Name == name {
			return co, true
		}
	}
	return Company{}, false
}

// CompanyForCard returns the company billed by the named card.
func (c *Config) CompanyForCard(name string) (Company, bool) {
	card, ok := c.Card(name)
	if !ok {
		return Company{}, false
	}
	return c.Company(card.Company)
}

// Cardholder looks up a cardholder by ID.
func (c *Config) Cardholder(id string) (models.Cardholder, bool) {
	for _, h := range c.Cardholders {
		if h.ID == id {
			return h, true
		}
	}
	return models.Cardholder{}, false
}

// CardsOf returns the names of the cards billed to company.
func (c *Config) CardsOf(company string) []string {
	var out []string
	for _, card := range c.Cards {
		if card.Company == company {
			out = append(out, card.Name)
		}
	}
	return out
}
