package dunning

import (
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/rentroll/internal/format"
	"github.com/matthewbaird/rentroll/internal/template"
)

// Generator is the document assembler: ledger, stage resolution, context
// assembly, and rendering in one pass. It holds no mutable state and is safe
// for concurrent use across distinct charges; the caller serializes calls
// per charge so two generations cannot both observe the same prior count.
type Generator struct {
	policy   Policy
	resolver *Resolver
	builder  *ContextBuilder
	renderer *template.Renderer
	clock    func() time.Time
}

// NewGenerator wires a generator from policy, render mode, and an injected
// clock. Pass time.Now in production; tests pass a fixed clock for
// reproducible generated_at values.
func NewGenerator(policy Policy, mode template.Mode, clock func() time.Time) *Generator {
	formatter := format.New(policy.Locale)
	return &Generator{
		policy:   policy,
		resolver: NewResolver(policy),
		builder:  NewContextBuilder(policy),
		renderer: template.NewRenderer(Helpers(formatter, policy.Currency), mode),
		clock:    clock,
	}
}

// Renderer exposes the generator's renderer for template validation and
// preview endpoints, which render against sample contexts.
func (g *Generator) Renderer() *template.Renderer { return g.renderer }

// Policy returns the generator's dunning policy.
func (g *Generator) Policy() Policy { return g.policy }

// GenerateInput is the stable snapshot a document is generated from.
// History must contain every previously generated reminder for the charge,
// ordered by generation time.
type GenerateInput struct {
	Charge       Charge
	Parties      PartySet
	History      []Reminder
	TemplateText string
	Notes        string
}

// GenerateResult is the rendered document and its immutable record. Nothing
// is persisted here; storing the reminder and rasterizing the HTML are the
// caller's responsibility.
type GenerateResult struct {
	HTML     string
	Reminder Reminder
}

// Generate produces a reminder document. It fails with AlreadySettledError
// for a settled charge, PrematureEscalationError under the interval rule,
// and the context or render errors otherwise. No partial document is ever
// returned.
func (g *Generator) Generate(in GenerateInput) (GenerateResult, error) {
	now := g.clock()

	assessment, err := EvaluateLedger(in.Charge, now)
	if err != nil {
		return GenerateResult{}, err
	}
	if assessment.IsSettled {
		return GenerateResult{}, &AlreadySettledError{ChargeID: in.Charge.ID}
	}

	resolution, err := g.resolver.Resolve(ResolveInput{
		ChargeID:              in.Charge.ID,
		DaysOverdue:           assessment.DaysOverdue,
		PriorReminderCount:    len(in.History),
		DaysSinceLastReminder: daysSinceLast(in.History, now),
	})
	if err != nil {
		return GenerateResult{}, err
	}

	ctx, err := g.builder.Build(BuildInput{
		Charge:       in.Charge,
		Parties:      in.Parties,
		Outstanding:  assessment.Outstanding,
		Stage:        resolution.Stage,
		Fee:          resolution.Fee,
		ReminderDate: now,
		Notes:        in.Notes,
	})
	if err != nil {
		return GenerateResult{}, err
	}

	html, err := g.renderer.Render(in.TemplateText, ctx)
	if err != nil {
		return GenerateResult{}, err
	}

	return GenerateResult{
		HTML: html,
		Reminder: Reminder{
			ID:          uuid.New(),
			ChargeID:    in.Charge.ID,
			Stage:       resolution.Stage,
			Fee:         resolution.Fee,
			GeneratedAt: now,
			Notes:       in.Notes,
			HTML:        html,
		},
	}, nil
}

// daysSinceLast counts whole days between the most recent reminder and now.
// Returns a large value when there is no history so the interval rule never
// blocks a first reminder.
func daysSinceLast(history []Reminder, now time.Time) int {
	if len(history) == 0 {
		return int(^uint(0) >> 1)
	}
	last := history[0].GeneratedAt
	for _, r := range history[1:] {
		if r.GeneratedAt.After(last) {
			last = r.GeneratedAt
		}
	}
	if !now.After(last) {
		return 0
	}
	return int(now.Sub(last).Hours() / 24)
}
