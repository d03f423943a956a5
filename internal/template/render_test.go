package template

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/rentroll/internal/format"
	"github.com/matthewbaird/rentroll/internal/types"
)

func testFuncs() *FuncRegistry {
	f := format.New(format.DefaultLocale())
	reg := NewFuncRegistry()
	reg.Register("format_currency", func(args []any) (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		m, ok := args[0].(types.Money)
		if !ok {
			return "", fmt.Errorf("expected a monetary amount, got %T", args[0])
		}
		return f.Money(m), nil
	})
	reg.Register("format_date", func(args []any) (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		d, ok := args[0].(time.Time)
		if !ok {
			return "", fmt.Errorf("expected a date, got %T", args[0])
		}
		return f.Date(d), nil
	})
	return reg
}

func testContext() Context {
	return Context{
		"amount":       types.Cents(70000, "EUR"),
		"reminder_fee": types.Cents(500, "EUR"),
		"total_amount": types.Cents(70500, "EUR"),
		"notes":        "",
		"tenant": map[string]any{
			"full_name": "Max Mustermann",
		},
		"charge": map[string]any{
			"due_date": time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		},
		"reminder_type": "first_reminder",
	}
}

func TestRenderSubstitution(t *testing.T) {
	r := NewRenderer(testFuncs(), Strict)
	out, err := r.Render("Sehr geehrte/r {{ tenant.full_name }},", testContext())
	require.NoError(t, err)
	assert.Equal(t, "Sehr geehrte/r Max Mustermann,", out)
}

func TestRenderHelpers(t *testing.T) {
	r := NewRenderer(testFuncs(), Strict)
	out, err := r.Render("Betrag: {{ format_currency(total_amount) }}, fällig am {{ format_date(charge.due_date) }}", testContext())
	require.NoError(t, err)
	assert.Equal(t, "Betrag: 705,00 €, fällig am 01.12.2024", out)
}

func TestRenderMoneyWithoutHelper(t *testing.T) {
	// A bare amount substitutes its canonical decimal form.
	r := NewRenderer(testFuncs(), Strict)
	out, err := r.Render("{{ amount }}", testContext())
	require.NoError(t, err)
	assert.Equal(t, "700.00", out)
}

func TestRenderConditionalFee(t *testing.T) {
	r := NewRenderer(testFuncs(), Strict)
	src := "{% if reminder_fee > 0 %}Mahngebühr: {{ format_currency(reminder_fee) }}{% else %}Keine Gebühr{% endif %}"

	out, err := r.Render(src, testContext())
	require.NoError(t, err)
	assert.Equal(t, "Mahngebühr: 5,00 €", out)

	ctx := testContext()
	ctx["reminder_fee"] = types.Cents(0, "EUR")
	out, err = r.Render(src, ctx)
	require.NoError(t, err)
	assert.Equal(t, "Keine Gebühr", out)
}

func TestRenderTruthyEmptyString(t *testing.T) {
	r := NewRenderer(testFuncs(), Strict)
	src := "{% if notes %}Hinweis: {{ notes }}{% endif %}Ende"

	out, err := r.Render(src, testContext())
	require.NoError(t, err)
	assert.Equal(t, "Ende", out)

	ctx := testContext()
	ctx["notes"] = "Ratenzahlung vereinbart"
	out, err = r.Render(src, ctx)
	require.NoError(t, err)
	assert.Equal(t, "Hinweis: Ratenzahlung vereinbartEnde", out)
}

func TestRenderStringComparison(t *testing.T) {
	r := NewRenderer(testFuncs(), Strict)
	src := `{% if reminder_type == "first_reminder" %}1. Mahnung{% else %}Sonstige{% endif %}`
	out, err := r.Render(src, testContext())
	require.NoError(t, err)
	assert.Equal(t, "1. Mahnung", out)
}

func TestRenderUnresolvedPlaceholder(t *testing.T) {
	r := NewRenderer(testFuncs(), Strict)
	_, err := r.Render("{{ tenant.fax_number }}", testContext())

	var unresolved *UnresolvedPlaceholderError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "tenant.fax_number", unresolved.Path)
	assert.Equal(t, 1, unresolved.Line)
}

func TestRenderUnresolvedPlaceholderLenientToo(t *testing.T) {
	// Missing data is an error in both modes; only syntax is forgiven.
	r := NewRenderer(testFuncs(), Lenient)
	_, err := r.Render("{{ tenant.fax_number }}", testContext())

	var unresolved *UnresolvedPlaceholderError
	require.ErrorAs(t, err, &unresolved)
}

func TestRenderUnknownHelper(t *testing.T) {
	r := NewRenderer(testFuncs(), Strict)
	_, err := r.Render("{{ format_currencyy(amount) }}", testContext())

	var unknown *UnknownHelperError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "format_currencyy", unknown.Name)
	assert.Equal(t, "format_currency", unknown.Suggestion)
}

func TestRenderStrictRejectsSyntaxErrors(t *testing.T) {
	r := NewRenderer(testFuncs(), Strict)
	_, err := r.Render("{{ tenant. }}", testContext())
	require.Error(t, err)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestRenderLenientLeavesVerbatim(t *testing.T) {
	r := NewRenderer(testFuncs(), Lenient)
	out, err := r.Render("vor {{ tenant. }} nach", testContext())
	require.NoError(t, err)
	assert.Equal(t, "vor {{ tenant. }} nach", out)
}

func TestRenderLenientUnknownTag(t *testing.T) {
	r := NewRenderer(testFuncs(), Lenient)
	out, err := r.Render("{% while x %}fertig", testContext())
	require.NoError(t, err)
	assert.Equal(t, "{% while x %}fertig", out)
}

func TestRenderNestedConditionals(t *testing.T) {
	r := NewRenderer(testFuncs(), Strict)
	src := `{% if total_amount > 0 %}{% if reminder_fee > 0 %}beides{% else %}nur Forderung{% endif %}{% endif %}`
	out, err := r.Render(src, testContext())
	require.NoError(t, err)
	assert.Equal(t, "beides", out)
}

func TestRenderDeterministic(t *testing.T) {
	r := NewRenderer(testFuncs(), Strict)
	src := "{{ tenant.full_name }}: {{ format_currency(total_amount) }} {% if reminder_fee > 0 %}({{ format_currency(reminder_fee) }}){% endif %}"

	first, err := r.Render(src, testContext())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		out, err := r.Render(src, testContext())
		require.NoError(t, err)
		assert.Equal(t, first, out)
	}
}

func TestRenderHelperArgumentError(t *testing.T) {
	r := NewRenderer(testFuncs(), Strict)
	_, err := r.Render("{{ format_date(tenant.full_name) }}", testContext())

	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Contains(t, renderErr.Message, "format_date")
}

func TestRenderAmountComparedToDecimalLiteral(t *testing.T) {
	r := NewRenderer(testFuncs(), Strict)
	src := "{% if total_amount >= 705.00 %}ja{% else %}nein{% endif %}"
	out, err := r.Render(src, testContext())
	require.NoError(t, err)
	assert.Equal(t, "ja", out)
}
