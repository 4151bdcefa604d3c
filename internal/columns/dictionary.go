package columns

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultSynonyms lists accepted header spellings per field, most specific
// first. Entries are written in normalized form.
var defaultSynonyms = map[Field][]string{
	Date: {
		"date", "ecrituredate", "date ecriture", "date d'ecriture", "date de l'ecriture",
		"date operation", "date d'operation", "date de l'operation", "date comptable",
		"date piece", "piecedate", "date valeur", "date de valeur",
		"posting date", "transaction date", "entry date", "jour",
	},
	AccountNumber: {
		"n° compte", "no compte", "n compte", "num compte", "numero compte",
		"numero de compte", "comptenum", "compte general", "compte", "cpte",
		"account number", "account no", "gl account", "account", "acct",
	},
	AccountName: {
		"libelle compte", "libelle du compte", "intitule compte", "intitule du compte",
		"comptelib", "nom du compte", "account name", "account label", "intitule",
		"label", "libelle",
	},
	Description: {
		"ecriturelib", "libelle ecriture", "libelle operation", "description",
		"designation", "memo", "narration", "details", "commentaire", "objet", "libelle",
	},
	Reference: {
		"reference", "pieceref", "ref piece", "n° piece", "numero de piece",
		"ecriturenum", "n° ecriture", "ref", "piece", "voucher", "document",
		"facture", "invoice",
	},
	Debit: {
		"debit", "montant debit", "debit amount", "debits", "dr", "sortie", "withdrawal",
	},
	Credit: {
		"credit", "montant credit", "credit amount", "credits", "cr", "entree", "deposit",
	},
	Category: {
		"categorie", "category", "rubrique", "nature", "poste", "classe",
		"journalcode", "code journal", "journal", "type",
	},
	Balance: {
		"solde", "balance", "solde progressif", "running balance",
		"solde debiteur", "solde crediteur",
	},
}

// Dictionary holds the ordered synonyms of every field in normalized form.
type Dictionary struct {
	synonyms map[Field][]string
}

// DefaultDictionary returns the built-in French and English synonyms.
func DefaultDictionary() *Dictionary {
	d := &Dictionary{synonyms: make(map[Field][]string, len(defaultSynonyms))}
	for f, syns := range defaultSynonyms {
		for _, s := range syns {
			d.synonyms[f] = append(d.synonyms[f], Normalize(s))
		}
	}
	return d
}

// Synonyms returns the synonyms of f in priority order.
func (d *Dictionary) Synonyms(f Field) []string {
	return d.synonyms[f]
}

// Extend adds synonyms ahead of the existing ones for f. Duplicates are
// dropped.
func (d *Dictionary) Extend(f Field, synonyms ...string) {
	candidates := make([]string, 0, len(synonyms)+len(d.synonyms[f]))
	candidates = append(candidates, synonyms...)
	candidates = append(candidates, d.synonyms[f]...)

	seen := make(map[string]bool)
	var merged []string
	for _, s := range candidates {
		n := Normalize(s)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		merged = append(merged, n)
	}
	d.synonyms[f] = merged
}

// LoadDictionary reads a YAML file mapping field names to extra synonyms
// and merges it in front of the defaults:
//
//	Account Number:
//	  - compte tiers
//	Debit:
//	  - mouvement debit
func LoadDictionary(path string) (*Dictionary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read synonyms %s: %w", path, err)
	}

	var extra map[string][]string
	if err := yaml.Unmarshal(raw, &extra); err != nil {
		return nil, fmt.Errorf("parse synonyms %s: %w", path, err)
	}

	d := DefaultDictionary()
	for name, syns := range extra {
		f, ok := ParseField(name)
		if !ok {
			return nil, fmt.Errorf("synonyms %s: unknown column %q", path, name)
		}
		d.Extend(f, syns...)
	}
	return d, nil
}
