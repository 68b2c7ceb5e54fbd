// Package plan implements the SYSCOHADA chart-of-accounts registry: the
// mapping from account-class digit to semantic category and normal side.
// Every balance computation in the engine resolves sides through this
// registry; the resolution is pure and immutable for the process lifetime.
package plan

import (
	"github.com/siguialassane/fact-capture-ai-sub002/internal/compta"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/config"
)

// Registry resolves account classes, labels and normal sides.
type Registry struct {
	labels map[int]string
}

// New builds a registry from the process configuration.
func New(cfg config.Config) *Registry {
	labels := make(map[int]string, len(cfg.ClassLabels))
	for k, v := range cfg.ClassLabels {
		labels[k] = v
	}
	return &Registry{labels: labels}
}

// ClassOf returns the SYSCOHADA class digit of an account number, or 0 when
// the number does not start with a digit 1-9.
func ClassOf(number string) int {
	if number == "" {
		return 0
	}
	c := number[0]
	if c < '1' || c > '9' {
		return 0
	}
	return int(c - '0')
}

// NormalSide resolves the side an account's balance is conventionally
// expressed on:
//   - classes 2, 3, 5, 6 (fixed assets, stocks, treasury, expenses): debit
//   - classes 1, 7 (durable resources, revenue): credit
//   - class 4 (third parties): two-digit prefixes >= 41 are receivables
//     (debit), prefixes < 41 are payables (credit)
//   - anything else defaults to debit
func NormalSide(number string) compta.Side {
	switch ClassOf(number) {
	case 1, 7:
		return compta.SideCredit
	case 4:
		// "4" alone and "40x" are supplier/payable accounts; "41" and above
		// are customer/receivable accounts.
		if len(number) >= 2 && number[1] >= '1' {
			return compta.SideDebit
		}
		return compta.SideCredit
	default:
		return compta.SideDebit
	}
}

// Label returns the configured label for a class digit.
func (r *Registry) Label(class int) string { return r.labels[class] }

// Resolve builds an Account with its class and normal side filled in.
func (r *Registry) Resolve(number, label string) compta.Account {
	return compta.Account{
		Number:     number,
		Label:      label,
		Class:      ClassOf(number),
		NormalSide: NormalSide(number),
	}
}
