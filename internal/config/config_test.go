package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
companies:
  - name: Moon Ventures
  - name: Hoomy
    folder: receipts-hoomy
cards:
  - name: Inter Moon Ventures
    company: Moon Ventures
  - name: Conta Simples Hoomy
    company: Hoomy
cardholders:
  - id: ana
    name: Ana Souza
    company: Hoomy
    email: ana@example.com
    credit_limit: 10000.00
  - id: bruno
    name: Bruno Lima
    company: Moon Ventures
    credit_limit: "2500.00"
    due_day: 20
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "America/Sao_Paulo", cfg.Location().String())
	assert.Equal(t, 5, cfg.DefaultDueDay)
	assert.Equal(t, 12, cfg.MaxInstallments)
	assert.True(t, cfg.ReceiptRequired())

	co, ok := cfg.Company("Moon Ventures")
	require.True(t, ok)
	assert.Equal(t, "moon-ventures", co.Folder)

	co, ok = cfg.CompanyForCard("Conta Simples Hoomy")
	require.True(t, ok)
	assert.Equal(t, "receipts-hoomy", co.Folder)

	ana, ok := cfg.Cardholder("ana")
	require.True(t, ok)
	assert.Equal(t, 5, ana.DueDay)
	assert.True(t, ana.CreditLimit.Equal(decimal.NewFromInt(10000)))

	bruno, _ := cfg.Cardholder("bruno")
	assert.Equal(t, 20, bruno.DueDay)
	assert.True(t, bruno.CreditLimit.Equal(decimal.NewFromInt(2500)))

	assert.Equal(t, []string{"Inter Moon Ventures"}, cfg.CardsOf("Moon Ventures"))

	_, ok = cfg.Card("Nubank")
	assert.False(t, ok)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown company": `
cards:
  - name: X
    company: Nope
`,
		"duplicate cardholder": `
cardholders:
  - id: a
  - id: a
`,
		"negative limit": `
cardholders:
  - id: a
    credit_limit: -1
`,
		"bad due day": `
cardholders:
  - id: a
    due_day: 40
`,
		"bad timezone": `
timezone: Mars/Olympus
`,
		"comma decimal limit": `
cardholders:
  - id: a
    credit_limit: "2500,00"
`,
		"receipt flag": `
require_receipt: maybe
`,
	}
	for name, doc := range cases {
		_, err := Parse([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestParse_ReceiptOptional(t *testing.T) {
	cfg, err := Parse([]byte("require_receipt: false\n"))
	require.NoError(t, err)
	assert.False(t, cfg.ReceiptRequired())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_due_day: 10\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.DefaultDueDay)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
