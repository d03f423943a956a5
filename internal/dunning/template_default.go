package dunning

import (
	"time"

	"github.com/matthewbaird/rentroll/internal/template"
	"github.com/matthewbaird/rentroll/internal/types"
)

// DefaultTemplateBody is the built-in German notice used when no custom
// template is configured. It exercises every placeholder form the language
// supports.
const DefaultTemplateBody = `<html>
<body>
<p>{{ client.name }}<br>{{ client.address }}</p>

<p>{{ tenant.full_name }}<br>{{ tenant.address }}</p>

<h1>{{ reminder_type_label }}</h1>
<p>Datum: {{ reminder_date }}</p>

<p>Sehr geehrte/r {{ tenant.full_name }},</p>

<p>für die Wohneinheit {{ unit.label }} ({{ property.name }}) ist die folgende
Forderung offen:</p>

<table>
  <tr><td>{{ charge.description }}</td><td>fällig am {{ charge.due_date }}</td></tr>
  <tr><td>Forderungsbetrag</td><td>{{ charge.amount_formatted }}</td></tr>
  <tr><td>Bereits gezahlt</td><td>{{ charge.paid_amount_formatted }}</td></tr>
  <tr><td>Offener Betrag</td><td>{{ amount_formatted }}</td></tr>
{% if reminder_fee > 0 %}
  <tr><td>Mahngebühr</td><td>{{ reminder_fee_formatted }}</td></tr>
{% endif %}
  <tr><td><strong>Gesamtbetrag</strong></td><td><strong>{{ total_amount_formatted }}</strong></td></tr>
</table>

{% if reminder_type == "final_notice" %}
<p>Dies ist die letzte Mahnung. Sollte der Gesamtbetrag nicht umgehend
eingehen, werden wir ohne weitere Ankündigung rechtliche Schritte einleiten.</p>
{% else %}
<p>Wir bitten Sie, den Gesamtbetrag kurzfristig zu überweisen.</p>
{% endif %}

{% if notes %}
<p>Hinweis: {{ notes }}</p>
{% endif %}

<p>Mit freundlichen Grüßen<br>{{ client.name }}</p>
</body>
</html>
`

// SampleContext returns a deterministic rendering context for template
// validation and preview. Values are representative, not live data.
func SampleContext(policy Policy) (template.Context, error) {
	builder := NewContextBuilder(policy)
	fee, err := policy.Fees.For(StageFirstReminder)
	if err != nil {
		return nil, err
	}
	return builder.Build(BuildInput{
		Charge: Charge{
			Description: "Miete Dezember 2024",
			Amount:      types.Cents(70000, policy.Currency),
			PaidAmount:  types.Cents(20000, policy.Currency),
			DueDate:     time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		},
		Parties: PartySet{
			Tenant: Tenant{
				FirstName: "Max",
				LastName:  "Mustermann",
				Address:   "Musterstraße 1, 10115 Berlin",
				Email:     "max@example.com",
			},
			Property: Property{Name: "Wohnanlage Mitte", Address: "Musterstraße 1, 10115 Berlin"},
			Unit:     Unit{Label: "WE 04", UnitNumber: "4"},
			Client: Client{
				Name:    "Hausverwaltung Beispiel GmbH",
				Address: "Verwalterweg 2, 10117 Berlin",
			},
			Owner: Owner{Name: "Immobilien Beispiel KG"},
		},
		Outstanding:  types.Cents(50000, policy.Currency),
		Stage:        StageFirstReminder,
		Fee:          fee,
		ReminderDate: time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC),
	})
}
