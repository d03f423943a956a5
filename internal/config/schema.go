package config

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// dunningSchema constrains the dunning policy section. Validation runs once
// at startup so a misconfigured fee schedule or blank stage label fails the
// process instead of surfacing mid-document.
const dunningSchema = `
#Dunning: {
	currency: string & =~"^[A-Z]{3}$"

	fees: {
		payment_reminder: int & >=0
		first_reminder:   int & >=0
		second_reminder:  int & >=0
		final_notice:     int & >=0
	}

	min_interval: {
		enabled: bool
		days:    int & >=0
	}

	labels: {
		payment_reminder: string & !=""
		first_reminder:   string & !=""
		second_reminder:  string & !=""
		final_notice:     string & !=""
	}

	required_fields?: {
		[=~"^(payment_reminder|first_reminder|second_reminder|final_notice)$"]: [...string & !=""]
	}

	locale: {
		decimal_sep:     string & !=""
		grouping_sep:    string
		currency_symbol: string
		symbol_suffix:   bool
		date_layout:     string & !=""
	}

	render_mode: "strict" | "lenient"
}
`

// ValidateDunning checks a dunning configuration against the schema.
func ValidateDunning(d DunningConfig) error {
	cctx := cuecontext.New()

	schema := cctx.CompileString(dunningSchema).LookupPath(cue.ParsePath("#Dunning"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	val := cctx.Encode(d)
	if err := val.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := schema.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}
