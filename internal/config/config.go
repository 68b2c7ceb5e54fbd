// Package config holds the process-wide immutable configuration for the
// accounting engine: currency of record, journal and class labels, tax rates,
// default accounts and lettrage search bounds. It is loaded once at startup
// and passed explicitly into constructors, never read as ambient state.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Lettrage bounds keep the many-to-one subset search tractable.
type Lettrage struct {
	// MaxSubsetSize caps the number of lines combined against a single
	// opposite-side line.
	MaxSubsetSize int `yaml:"max_subset_size"`
	// MaxCandidates caps the candidate pool considered per target line.
	MaxCandidates int `yaml:"max_candidates"`
}

// DefaultAccounts names the conventional SYSCOHADA accounts the capture
// pipeline posts against.
type DefaultAccounts struct {
	Client        string `yaml:"client"`
	Fournisseur   string `yaml:"fournisseur"`
	Vente         string `yaml:"vente"`
	Achat         string `yaml:"achat"`
	TVACollectee  string `yaml:"tva_collectee"`
	TVADeductible string `yaml:"tva_deductible"`
	Banque        string `yaml:"banque"`
	Caisse        string `yaml:"caisse"`
	Resultat      string `yaml:"resultat"`
}

// Config is the immutable engine configuration.
type Config struct {
	// Currency is the ISO 4217 code of the currency of record.
	Currency string `yaml:"currency"`
	// Journals maps journal codes to display labels.
	Journals map[string]string `yaml:"journals"`
	// ClassLabels maps SYSCOHADA class digits to display labels.
	ClassLabels map[int]string `yaml:"class_labels"`
	// TauxTVA maps VAT regime codes to rates in percent.
	TauxTVA  map[string]float64 `yaml:"taux_tva"`
	Accounts DefaultAccounts    `yaml:"accounts"`
	Lettrage Lettrage           `yaml:"lettrage"`
}

// Default returns the built-in SYSCOHADA configuration.
func Default() Config {
	return Config{
		Currency: "XOF",
		Journals: map[string]string{
			"AC": "Achats",
			"VE": "Ventes",
			"BQ": "Banque",
			"CA": "Caisse",
			"OD": "Opérations diverses",
		},
		ClassLabels: map[int]string{
			1: "Comptes de ressources durables",
			2: "Comptes d'actif immobilisé",
			3: "Comptes de stocks",
			4: "Comptes de tiers",
			5: "Comptes de trésorerie",
			6: "Comptes de charges",
			7: "Comptes de produits",
			8: "Comptes des autres charges et produits",
			9: "Comptabilité analytique",
		},
		TauxTVA: map[string]float64{
			"normal":  18,
			"reduit":  9,
			"exonere": 0,
		},
		Accounts: DefaultAccounts{
			Client:        "411",
			Fournisseur:   "401",
			Vente:         "701",
			Achat:         "601",
			TVACollectee:  "4431",
			TVADeductible: "4451",
			Banque:        "521",
			Caisse:        "571",
			Resultat:      "12",
		},
		Lettrage: Lettrage{MaxSubsetSize: 4, MaxCandidates: 32},
	}
}

// Load returns Default overlaid with the YAML file at path. An empty path
// returns Default unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	if c.Lettrage.MaxSubsetSize < 2 {
		return fmt.Errorf("lettrage.max_subset_size must be >= 2")
	}
	if c.Lettrage.MaxCandidates < c.Lettrage.MaxSubsetSize {
		return fmt.Errorf("lettrage.max_candidates must be >= max_subset_size")
	}
	return nil
}

// KnownJournal reports whether code is a configured journal code.
func (c Config) KnownJournal(code string) bool {
	_, ok := c.Journals[code]
	return ok
}
