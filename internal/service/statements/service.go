// Package statements derives the SYSCOHADA financial statements (bilan,
// compte de résultat and ratio indicators) from trial balances computed by
// the ledger engine. Derivation is a pure function of the entry snapshot:
// running it twice on unchanged data yields identical output, and the
// statutory identities are checked and reported, never silently fixed.
package statements

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/siguialassane/fact-capture-ai-sub002/internal/compta"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/config"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/service/ledger"
)

// Poste is one account line inside a statement section.
type Poste struct {
	Account compta.Account
	Minor   int64
}

// Section groups postes under a statement heading.
type Section struct {
	Label      string
	Postes     []Poste
	TotalMinor int64
}

func (s *Section) add(acc compta.Account, minor int64) {
	s.Postes = append(s.Postes, Poste{Account: acc, Minor: minor})
	s.TotalMinor += minor
}

// Integrity carries a computed identity check with its exact discrepancy.
type Integrity struct {
	Equilibre  bool
	EcartMinor int64
}

// BalanceSheet is the bilan for one exercice.
type BalanceSheet struct {
	Exercice compta.Exercice

	ActifImmobilise Section
	ActifCirculant  Section
	TresorerieActif Section
	TotalActifMinor int64

	CapitauxPropres  Section
	Dettes           Section
	TresoreriePassif Section
	TotalPassifMinor int64

	// Integrity reports total_actif == total_passif; a mismatch commonly
	// means the period result has not been transferred to account 12.
	Integrity Integrity
}

// IncomeStatement is the compte de résultat for one exercice.
type IncomeStatement struct {
	Exercice compta.Exercice

	Charges            []Poste
	Produits           []Poste
	TotalChargesMinor  int64
	TotalProduitsMinor int64
	ResultatNetMinor   int64

	// Resultat12Minor is the posted balance of the class-12 account at the
	// end of the exercice; the cross-check against ResultatNetMinor is
	// reported when a transfer has been posted.
	Resultat12Minor int64
	ResultatPosted  bool
	Integrity       Integrity
}

// Indicators is the ratio set derived from the two statements.
type Indicators struct {
	Exercice compta.Exercice

	MargeBrute          decimal.Decimal
	MargeNette          decimal.Decimal
	ROE                 decimal.Decimal
	RatioLiquidite      decimal.Decimal
	TauxEndettement     decimal.Decimal
	AutonomieFinanciere decimal.Decimal

	BFRMinor             int64
	TresorerieNetteMinor int64

	DelaiClientJours      decimal.Decimal
	DelaiFournisseurJours decimal.Decimal
	RotationStocks        decimal.Decimal
}

// Service derives statements for an exercice.
type Service interface {
	BalanceSheet(ctx context.Context, ex compta.Exercice) (BalanceSheet, error)
	IncomeStatement(ctx context.Context, ex compta.Exercice) (IncomeStatement, error)
	Indicators(ctx context.Context, ex compta.Exercice) (Indicators, error)
}

type service struct {
	ledger ledger.Service
	cfg    config.Config
}

// New constructs the statement deriver on top of the ledger engine.
func New(svc ledger.Service, cfg config.Config) Service {
	return &service{ledger: svc, cfg: cfg}
}

// BalanceSheet aggregates cumulative closing balances at the end of the
// exercice into the bilan sections. Income accounts (classes 6 and 7) are
// not part of the bilan; their net effect only enters through the posted
// period-end transfer to account 12, so an unposted transfer surfaces as a
// reported imbalance with its exact amount.
func (s *service) BalanceSheet(ctx context.Context, ex compta.Exercice) (BalanceSheet, error) {
	end := ex.End()
	tb, err := s.ledger.TrialBalance(ctx, ledger.TrialBalanceQuery{AsOf: &end})
	if err != nil {
		return BalanceSheet{}, err
	}

	bs := BalanceSheet{
		Exercice:         ex,
		ActifImmobilise:  Section{Label: "Actif immobilisé"},
		ActifCirculant:   Section{Label: "Actif circulant"},
		TresorerieActif:  Section{Label: "Trésorerie actif"},
		CapitauxPropres:  Section{Label: "Capitaux propres"},
		Dettes:           Section{Label: "Dettes"},
		TresoreriePassif: Section{Label: "Trésorerie passif"},
	}

	for _, row := range tb.Rows {
		acc, closing := row.Account, row.ClosingMinor
		if closing == 0 {
			continue
		}
		switch acc.Class {
		case 1:
			// Emprunts (16-19) are long-term debt; the rest is equity.
			if len(acc.Number) >= 2 && acc.Number[1] >= '6' {
				bs.Dettes.add(acc, closing)
			} else {
				bs.CapitauxPropres.add(acc, closing)
			}
		case 2:
			bs.ActifImmobilise.add(acc, closing)
		case 3:
			bs.ActifCirculant.add(acc, closing)
		case 4:
			if acc.NormalSide == compta.SideDebit {
				bs.ActifCirculant.add(acc, closing)
			} else {
				bs.Dettes.add(acc, closing)
			}
		case 5:
			// Treasury splits on the sign of the closing balance.
			if closing >= 0 {
				bs.TresorerieActif.add(acc, closing)
			} else {
				bs.TresoreriePassif.add(acc, -closing)
			}
		}
	}

	bs.TotalActifMinor = bs.ActifImmobilise.TotalMinor + bs.ActifCirculant.TotalMinor + bs.TresorerieActif.TotalMinor
	bs.TotalPassifMinor = bs.CapitauxPropres.TotalMinor + bs.Dettes.TotalMinor + bs.TresoreriePassif.TotalMinor
	ecart := bs.TotalActifMinor - bs.TotalPassifMinor
	bs.Integrity = Integrity{Equilibre: ecart == 0, EcartMinor: ecart}
	return bs, nil
}

// IncomeStatement sums class-6 and class-7 movements over the exercice.
func (s *service) IncomeStatement(ctx context.Context, ex compta.Exercice) (IncomeStatement, error) {
	start, end := ex.Start(), ex.End()
	tb, err := s.ledger.TrialBalance(ctx, ledger.TrialBalanceQuery{
		ClasseDebut: "6", ClasseFin: "7",
		From: &start, AsOf: &end,
		AvecMouvements: true,
	})
	if err != nil {
		return IncomeStatement{}, err
	}

	is := IncomeStatement{Exercice: ex}
	for _, row := range tb.Rows {
		// Movement within the exercice only; any carried-over balance on an
		// income account stays out of the period result.
		mov := row.ClosingMinor - row.OpeningMinor
		switch row.Account.Class {
		case 6:
			is.Charges = append(is.Charges, Poste{Account: row.Account, Minor: mov})
			is.TotalChargesMinor += mov
		case 7:
			is.Produits = append(is.Produits, Poste{Account: row.Account, Minor: mov})
			is.TotalProduitsMinor += mov
		}
	}
	is.ResultatNetMinor = is.TotalProduitsMinor - is.TotalChargesMinor

	// Cross-check against the posted "résultat de l'exercice" account.
	posted, err := s.resultatPosted(ctx, end)
	if err != nil {
		return IncomeStatement{}, err
	}
	is.Resultat12Minor = posted
	is.ResultatPosted = posted != 0
	ecart := int64(0)
	if is.ResultatPosted {
		ecart = is.ResultatNetMinor - posted
	}
	is.Integrity = Integrity{Equilibre: ecart == 0, EcartMinor: ecart}
	return is, nil
}

// resultatPosted sums the closing balances of the configured result account
// subtree (prefix "12" by default).
func (s *service) resultatPosted(ctx context.Context, end time.Time) (int64, error) {
	prefix := s.cfg.Accounts.Resultat
	tb, err := s.ledger.TrialBalance(ctx, ledger.TrialBalanceQuery{
		ClasseDebut: prefix, ClasseFin: prefix,
		AsOf: &end,
	})
	if err != nil {
		return 0, err
	}
	var total int64
	for _, row := range tb.Rows {
		if !strings.HasPrefix(row.Account.Number, prefix) {
			continue
		}
		total += row.ClosingMinor
	}
	return total, nil
}

// Indicators computes the ratio set from the two statements. Ratios are
// decimal fractions (never binary floats); day counts use the 360-day
// commercial year convention.
func (s *service) Indicators(ctx context.Context, ex compta.Exercice) (Indicators, error) {
	bs, err := s.BalanceSheet(ctx, ex)
	if err != nil {
		return Indicators{}, err
	}
	is, err := s.IncomeStatement(ctx, ex)
	if err != nil {
		return Indicators{}, err
	}

	// Purchases (class 60) and stock levels feed the rotation ratios.
	start, end := ex.Start(), ex.End()
	achatsTB, err := s.ledger.TrialBalance(ctx, ledger.TrialBalanceQuery{
		ClasseDebut: "60", ClasseFin: "60",
		From: &start, AsOf: &end,
	})
	if err != nil {
		return Indicators{}, err
	}
	var achats int64
	for _, row := range achatsTB.Rows {
		achats += row.ClosingMinor - row.OpeningMinor
	}
	stocksTB, err := s.ledger.TrialBalance(ctx, ledger.TrialBalanceQuery{
		ClasseDebut: "3", ClasseFin: "3",
		From: &start, AsOf: &end,
	})
	if err != nil {
		return Indicators{}, err
	}
	var stockOpening, stockClosing int64
	for _, row := range stocksTB.Rows {
		stockOpening += row.OpeningMinor
		stockClosing += row.ClosingMinor
	}

	produits := decimal.NewFromInt(is.TotalProduitsMinor)
	resultat := decimal.NewFromInt(is.ResultatNetMinor)
	dAchats := decimal.NewFromInt(achats)

	var creances, fournisseurs int64
	for _, p := range bs.ActifCirculant.Postes {
		if p.Account.Class == 4 {
			creances += p.Minor
		}
	}
	for _, p := range bs.Dettes.Postes {
		if p.Account.Class == 4 {
			fournisseurs += p.Minor
		}
	}

	ind := Indicators{
		Exercice:             ex,
		BFRMinor:             creances + stockClosing - fournisseurs,
		TresorerieNetteMinor: bs.TresorerieActif.TotalMinor - bs.TresoreriePassif.TotalMinor,
	}

	ind.MargeBrute = ratio(produits.Sub(dAchats), produits)
	ind.MargeNette = ratio(resultat, produits)
	ind.ROE = ratio(resultat, decimal.NewFromInt(bs.CapitauxPropres.TotalMinor))
	ind.RatioLiquidite = ratio(
		decimal.NewFromInt(bs.ActifCirculant.TotalMinor+bs.TresorerieActif.TotalMinor),
		decimal.NewFromInt(bs.Dettes.TotalMinor+bs.TresoreriePassif.TotalMinor),
	)
	ind.TauxEndettement = ratio(decimal.NewFromInt(bs.Dettes.TotalMinor), decimal.NewFromInt(bs.TotalPassifMinor))
	ind.AutonomieFinanciere = ratio(decimal.NewFromInt(bs.CapitauxPropres.TotalMinor), decimal.NewFromInt(bs.TotalPassifMinor))
	ind.DelaiClientJours = ratio(decimal.NewFromInt(creances).Mul(days360), produits)
	ind.DelaiFournisseurJours = ratio(decimal.NewFromInt(fournisseurs).Mul(days360), dAchats)
	avgStock := decimal.NewFromInt(stockOpening + stockClosing).Div(decimal.NewFromInt(2))
	ind.RotationStocks = ratio(dAchats, avgStock)
	return ind, nil
}

var days360 = decimal.NewFromInt(360)

// ratio divides num by den at 4 decimal places, returning zero for an empty
// denominator so missing activity never turns into a division error.
func ratio(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.DivRound(den, 4)
}
