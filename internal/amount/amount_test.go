package amount

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.234,56", "1234.56"},
		{"399,80", "399.8"},
		{"R$ 1.234,56", "1234.56"},
		{" 12 ", "12"},
		{"1.000.000,01", "1000000.01"},
		{"abc", "0"},
		{"", "0"},
		{"-10,00", "0"},
		{"1.234", "1234"},
		{"1234.56", "1234.56"},
		{"399.8", "399.8"},
		{"33.333333", "33.333333"},
		{"1.234.567", "1234567"},
	}
	for _, c := range cases {
		got := Parse(c.in)
		assert.True(t, got.Equal(decimal.RequireFromString(c.want)), "Parse(%q) = %s, want %s", c.in, got, c.want)
	}
}

func TestParseStrict(t *testing.T) {
	d, err := ParseStrict("1.234,56")
	assert.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("1234.56")))

	for _, in := range []string{"abc", "", "   ", "-1", "1,2,3"} {
		_, err := ParseStrict(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", in)
	}

	zero, err := ParseStrict("0,00")
	assert.NoError(t, err)
	assert.True(t, zero.IsZero())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "R$ 1.234,56", Format(decimal.RequireFromString("1234.56")))
	assert.Equal(t, "R$ 0,00", Format(decimal.Zero))
	assert.Equal(t, "33,33", FormatPlain(decimal.NewFromInt(100).Div(decimal.NewFromInt(3))))
	assert.Equal(t, "0,01", FormatPlain(decimal.RequireFromString("0.005")))
	assert.Equal(t, "-1.500,50", FormatPlain(decimal.RequireFromString("-1500.5")))
	assert.Equal(t, "1.234.567.890.123.456,79", FormatPlain(decimal.RequireFromString("1234567890123456.789")))
}

func TestFormatRoundTrip(t *testing.T) {
	d := decimal.RequireFromString("98765.43")
	assert.True(t, Parse(Format(d)).Equal(d))
}
