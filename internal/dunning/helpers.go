package dunning

import (
	"fmt"
	"math"
	"time"

	"github.com/matthewbaird/rentroll/internal/format"
	"github.com/matthewbaird/rentroll/internal/template"
	"github.com/matthewbaird/rentroll/internal/types"
)

// Helpers builds the closed formatting-helper registry templates may call:
// format_currency and format_date. The registry is fixed at construction;
// templates can never reach other functions.
func Helpers(f *format.Formatter, currency string) *template.FuncRegistry {
	reg := template.NewFuncRegistry()

	reg.Register("format_currency", func(args []any) (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		switch v := args[0].(type) {
		case types.Money:
			return f.Money(v), nil
		case int64:
			return f.Money(types.Cents(v*100, currency)), nil
		case float64:
			return f.Money(types.Cents(int64(math.Round(v*100)), currency)), nil
		default:
			return "", fmt.Errorf("expected a monetary amount, got %T", args[0])
		}
	})

	reg.Register("format_date", func(args []any) (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		switch v := args[0].(type) {
		case time.Time:
			return f.Date(v), nil
		case string:
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				return "", fmt.Errorf("expected an ISO date, got %q", v)
			}
			return f.Date(t), nil
		default:
			return "", fmt.Errorf("expected a date, got %T", args[0])
		}
	})

	return reg
}
