package httpapi

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/siguialassane/fact-capture-ai-sub002/internal/compta"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/service/ledger"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/service/lettrage"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/service/statements"
)

type postEcritureRequest struct {
	Date     time.Time           `json:"date"`
	Journal  compta.JournalCode  `json:"journal"`
	PieceRef string              `json:"piece_ref"`
	Lignes   []postEcritureLigne `json:"lignes"`
}

type postEcritureLigne struct {
	Compte      string `json:"compte"`
	DebitMinor  int64  `json:"debit_minor"`
	CreditMinor int64  `json:"credit_minor"`
	Tiers       string `json:"tiers,omitempty"`
	Libelle     string `json:"libelle,omitempty"`
}

func (s *Server) toEntryDomain(req postEcritureRequest) compta.JournalEntry {
	e := compta.JournalEntry{
		Date:     req.Date,
		Journal:  req.Journal,
		PieceRef: req.PieceRef,
	}
	for _, ln := range req.Lignes {
		e.Lines = append(e.Lines, compta.EntryLine{
			AccountNumber: ln.Compte,
			Debit:         compta.MustAmount(s.cfg.Currency, ln.DebitMinor),
			Credit:        compta.MustAmount(s.cfg.Currency, ln.CreditMinor),
			TiersCode:     ln.Tiers,
			Label:         ln.Libelle,
		})
	}
	return e
}

type ecritureResponse struct {
	ID       uuid.UUID          `json:"id"`
	Date     time.Time          `json:"date"`
	Journal  compta.JournalCode `json:"journal"`
	PieceRef string             `json:"piece_ref"`
	Lignes   []ligneResponse    `json:"lignes"`
}

type ligneResponse struct {
	ID          uuid.UUID `json:"id"`
	EcritureID  uuid.UUID `json:"ecriture_id"`
	Compte      string    `json:"compte"`
	DebitMinor  int64     `json:"debit_minor"`
	CreditMinor int64     `json:"credit_minor"`
	Tiers       string    `json:"tiers,omitempty"`
	Libelle     string    `json:"libelle,omitempty"`
	Lettrage    string    `json:"lettrage,omitempty"`
	Date        time.Time `json:"date"`
}

func toEcritureResponse(e compta.JournalEntry) ecritureResponse {
	out := ecritureResponse{ID: e.ID, Date: e.Date, Journal: e.Journal, PieceRef: e.PieceRef}
	for _, ln := range e.Lines {
		out.Lignes = append(out.Lignes, toLigneResponse(ln))
	}
	return out
}

func toLigneResponse(ln compta.EntryLine) ligneResponse {
	return ligneResponse{
		ID:          ln.ID,
		EcritureID:  ln.EntryID,
		Compte:      ln.AccountNumber,
		DebitMinor:  ln.DebitMinor(),
		CreditMinor: ln.CreditMinor(),
		Tiers:       ln.TiersCode,
		Libelle:     ln.Label,
		Lettrage:    ln.LettrageCode,
		Date:        ln.Date,
	}
}

// searchLigneResponse is a flat movement row without a running balance.
type searchLigneResponse struct {
	ligneResponse
	Journal  compta.JournalCode `json:"journal"`
	PieceRef string             `json:"piece_ref,omitempty"`
}

// Grand livre

type mouvementResponse struct {
	ligneResponse
	Journal      compta.JournalCode `json:"journal"`
	PieceRef     string             `json:"piece_ref,omitempty"`
	RunningMinor int64              `json:"solde_progressif_minor"`
}

type grandLivreResponse struct {
	Compte       compteResponse      `json:"compte"`
	OpeningMinor int64               `json:"solde_initial_minor"`
	ClosingMinor int64               `json:"solde_final_minor"`
	Mouvements   []mouvementResponse `json:"mouvements"`
}

type compteResponse struct {
	Numero        string      `json:"numero"`
	Libelle       string      `json:"libelle,omitempty"`
	Classe        int         `json:"classe"`
	LibelleClasse string      `json:"libelle_classe,omitempty"`
	SensNormal    compta.Side `json:"sens_normal"`
}

func (s *Server) toCompteResponse(a compta.Account) compteResponse {
	return compteResponse{
		Numero:        a.Number,
		Libelle:       a.Label,
		Classe:        a.Class,
		LibelleClasse: s.reg.Label(a.Class),
		SensNormal:    a.NormalSide,
	}
}

func (s *Server) toGrandLivreResponse(rec ledger.Record) grandLivreResponse {
	out := grandLivreResponse{
		Compte:       s.toCompteResponse(rec.Account),
		OpeningMinor: rec.OpeningMinor,
		ClosingMinor: rec.ClosingMinor,
		Mouvements:   make([]mouvementResponse, 0, len(rec.Lines)),
	}
	for _, ln := range rec.Lines {
		out.Mouvements = append(out.Mouvements, mouvementResponse{
			ligneResponse: toLigneResponse(ln.EntryLine),
			Journal:       ln.Journal,
			PieceRef:      ln.PieceRef,
			RunningMinor:  ln.RunningMinor,
		})
	}
	return out
}

type soldeResponse struct {
	Compte     string    `json:"compte"`
	Au         time.Time `json:"au"`
	SoldeMinor int64     `json:"solde_minor"`
}

// Balance

type balanceRowResponse struct {
	Compte       compteResponse `json:"compte"`
	OpeningMinor int64          `json:"solde_initial_minor"`
	DebitMinor   int64          `json:"debit_minor"`
	CreditMinor  int64          `json:"credit_minor"`
	ClosingMinor int64          `json:"solde_final_minor"`
}

type integriteResponse struct {
	Equilibre  bool  `json:"equilibre"`
	EcartMinor int64 `json:"ecart_minor"`
}

type balanceResponse struct {
	Lignes           []balanceRowResponse `json:"lignes"`
	TotalDebitMinor  int64                `json:"total_debit_minor"`
	TotalCreditMinor int64                `json:"total_credit_minor"`
	Integrite        integriteResponse    `json:"integrite"`
}

func (s *Server) toBalanceResponse(tb ledger.TrialBalance) balanceResponse {
	out := balanceResponse{
		Lignes:           make([]balanceRowResponse, 0, len(tb.Rows)),
		TotalDebitMinor:  tb.TotalDebitMinor,
		TotalCreditMinor: tb.TotalCreditMinor,
		Integrite:        integriteResponse{Equilibre: tb.Integrity.Equilibre, EcartMinor: tb.Integrity.EcartMinor},
	}
	for _, row := range tb.Rows {
		out.Lignes = append(out.Lignes, balanceRowResponse{
			Compte:       s.toCompteResponse(row.Account),
			OpeningMinor: row.OpeningMinor,
			DebitMinor:   row.DebitMinor,
			CreditMinor:  row.CreditMinor,
			ClosingMinor: row.ClosingMinor,
		})
	}
	return out
}

// Lettrage

type ligneRefRequest struct {
	EcritureID uuid.UUID `json:"ecriture_id"`
	LigneID    uuid.UUID `json:"ligne_id"`
}

type postGroupeRequest struct {
	Lignes []ligneRefRequest `json:"lignes"`
}

func toLineRefs(refs []ligneRefRequest) []compta.LineRef {
	out := make([]compta.LineRef, 0, len(refs))
	for _, r := range refs {
		out = append(out, compta.LineRef{EntryID: r.EcritureID, LineID: r.LigneID})
	}
	return out
}

type ligneRefResponse struct {
	EcritureID uuid.UUID `json:"ecriture_id"`
	LigneID    uuid.UUID `json:"ligne_id"`
}

type groupeResponse struct {
	Code   string             `json:"code"`
	Compte string             `json:"compte"`
	Lignes []ligneRefResponse `json:"lignes"`
}

type autoLettrageResponse struct {
	Compte         string           `json:"compte"`
	Groupes        []groupeResponse `json:"groupes"`
	LignesOuvertes int              `json:"lignes_ouvertes"`
}

func toAutoLettrageResponse(res lettrage.Result) autoLettrageResponse {
	out := autoLettrageResponse{Compte: res.Account, Groupes: make([]groupeResponse, 0, len(res.Matches)), LignesOuvertes: res.OpenLines}
	for _, m := range res.Matches {
		out.Groupes = append(out.Groupes, groupeResponse{Code: m.Code, Compte: res.Account, Lignes: toRefResponses(m.Lines)})
	}
	return out
}

func toRefResponses(refs []compta.LineRef) []ligneRefResponse {
	out := make([]ligneRefResponse, 0, len(refs))
	for _, r := range refs {
		out = append(out, ligneRefResponse{EcritureID: r.EntryID, LigneID: r.LineID})
	}
	return out
}

// Etats financiers

type posteResponse struct {
	Compte compteResponse `json:"compte"`
	Minor  int64          `json:"montant_minor"`
}

type sectionResponse struct {
	Libelle    string          `json:"libelle"`
	Postes     []posteResponse `json:"postes"`
	TotalMinor int64           `json:"total_minor"`
}

func (s *Server) toSectionResponse(sec statements.Section) sectionResponse {
	out := sectionResponse{Libelle: sec.Label, Postes: make([]posteResponse, 0, len(sec.Postes)), TotalMinor: sec.TotalMinor}
	for _, p := range sec.Postes {
		out.Postes = append(out.Postes, posteResponse{Compte: s.toCompteResponse(p.Account), Minor: p.Minor})
	}
	return out
}

type bilanResponse struct {
	Annee            int               `json:"annee"`
	ActifImmobilise  sectionResponse   `json:"actif_immobilise"`
	ActifCirculant   sectionResponse   `json:"actif_circulant"`
	TresorerieActif  sectionResponse   `json:"tresorerie_actif"`
	TotalActifMinor  int64             `json:"total_actif_minor"`
	CapitauxPropres  sectionResponse   `json:"capitaux_propres"`
	Dettes           sectionResponse   `json:"dettes"`
	TresoreriePassif sectionResponse   `json:"tresorerie_passif"`
	TotalPassifMinor int64             `json:"total_passif_minor"`
	Integrite        integriteResponse `json:"integrite"`
}

func (s *Server) toBilanResponse(b statements.BalanceSheet) bilanResponse {
	return bilanResponse{
		Annee:            b.Exercice.Year,
		ActifImmobilise:  s.toSectionResponse(b.ActifImmobilise),
		ActifCirculant:   s.toSectionResponse(b.ActifCirculant),
		TresorerieActif:  s.toSectionResponse(b.TresorerieActif),
		TotalActifMinor:  b.TotalActifMinor,
		CapitauxPropres:  s.toSectionResponse(b.CapitauxPropres),
		Dettes:           s.toSectionResponse(b.Dettes),
		TresoreriePassif: s.toSectionResponse(b.TresoreriePassif),
		TotalPassifMinor: b.TotalPassifMinor,
		Integrite:        integriteResponse{Equilibre: b.Integrity.Equilibre, EcartMinor: b.Integrity.EcartMinor},
	}
}

type compteResultatResponse struct {
	Annee              int               `json:"annee"`
	Charges            []posteResponse   `json:"charges"`
	Produits           []posteResponse   `json:"produits"`
	TotalChargesMinor  int64             `json:"total_charges_minor"`
	TotalProduitsMinor int64             `json:"total_produits_minor"`
	ResultatNetMinor   int64             `json:"resultat_net_minor"`
	Integrite          integriteResponse `json:"integrite"`
}

func (s *Server) toCompteResultatResponse(cr statements.IncomeStatement) compteResultatResponse {
	out := compteResultatResponse{
		Annee:              cr.Exercice.Year,
		Charges:            make([]posteResponse, 0, len(cr.Charges)),
		Produits:           make([]posteResponse, 0, len(cr.Produits)),
		TotalChargesMinor:  cr.TotalChargesMinor,
		TotalProduitsMinor: cr.TotalProduitsMinor,
		ResultatNetMinor:   cr.ResultatNetMinor,
		Integrite:          integriteResponse{Equilibre: cr.Integrity.Equilibre, EcartMinor: cr.Integrity.EcartMinor},
	}
	for _, p := range cr.Charges {
		out.Charges = append(out.Charges, posteResponse{Compte: s.toCompteResponse(p.Account), Minor: p.Minor})
	}
	for _, p := range cr.Produits {
		out.Produits = append(out.Produits, posteResponse{Compte: s.toCompteResponse(p.Account), Minor: p.Minor})
	}
	return out
}

type indicateursResponse struct {
	Annee int `json:"annee"`

	MargeBrute          decimal.Decimal `json:"marge_brute"`
	MargeNette          decimal.Decimal `json:"marge_nette"`
	ROE                 decimal.Decimal `json:"roe"`
	RatioLiquidite      decimal.Decimal `json:"ratio_liquidite"`
	TauxEndettement     decimal.Decimal `json:"taux_endettement"`
	AutonomieFinanciere decimal.Decimal `json:"autonomie_financiere"`

	BFRMinor             int64 `json:"bfr_minor"`
	TresorerieNetteMinor int64 `json:"tresorerie_nette_minor"`

	DelaiClientJours      decimal.Decimal `json:"delai_client_jours"`
	DelaiFournisseurJours decimal.Decimal `json:"delai_fournisseur_jours"`
	RotationStocks        decimal.Decimal `json:"rotation_stocks"`
}

func toIndicateursResponse(ind statements.Indicators) indicateursResponse {
	return indicateursResponse{
		Annee:                 ind.Exercice.Year,
		MargeBrute:            ind.MargeBrute,
		MargeNette:            ind.MargeNette,
		ROE:                   ind.ROE,
		RatioLiquidite:        ind.RatioLiquidite,
		TauxEndettement:       ind.TauxEndettement,
		AutonomieFinanciere:   ind.AutonomieFinanciere,
		BFRMinor:              ind.BFRMinor,
		TresorerieNetteMinor:  ind.TresorerieNetteMinor,
		DelaiClientJours:      ind.DelaiClientJours,
		DelaiFournisseurJours: ind.DelaiFournisseurJours,
		RotationStocks:        ind.RotationStocks,
	}
}
