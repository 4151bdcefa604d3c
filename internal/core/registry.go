package core

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/ledgerrecon/internal/columns"
)

// ErrUnknownProfile is returned when an import names a profile that is not
// registered.
var ErrUnknownProfile = errors.New("unknown import profile")

// Built-in profile keys.
const (
	ProfileGeneralLedger = "general_ledger"
	ProfileTrialBalance  = "trial_balance"
	ProfileBankStatement = "bank_statement"
)

// Profile is a named import type: the columns a file of that type is
// expected to carry, in file order when positional mapping applies.
type Profile struct {
	Key     string          `json:"key"`
	Label   string          `json:"label"`
	Columns []columns.Field `json:"columns"`
}

// Registry holds the profiles known to one Service. It is safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewRegistry returns a registry holding profiles.
func NewRegistry(profiles ...Profile) (*Registry, error) {
	r := &Registry{profiles: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry returns a registry with the built-in profiles.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultProfiles()...)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultProfiles returns the built-in profiles.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			Key:   ProfileGeneralLedger,
			Label: "General ledger",
			Columns: []columns.Field{
				columns.Date, columns.AccountNumber, columns.AccountName, columns.Description,
				columns.Reference, columns.Debit, columns.Credit, columns.Category,
			},
		},
		{
			Key:     ProfileTrialBalance,
			Label:   "Trial balance",
			Columns: []columns.Field{columns.AccountNumber, columns.AccountName, columns.Debit, columns.Credit},
		},
		{
			Key:   ProfileBankStatement,
			Label: "Bank statement",
			Columns: []columns.Field{
				columns.Date, columns.Description, columns.Reference, columns.Debit, columns.Credit,
			},
		},
	}
}

// Register adds p. Keys must be unique and a profile needs at least one
// column.
func (r *Registry) Register(p Profile) error {
	if p.Key == "" {
		return errors.New("profile key is required")
	}
	if len(p.Columns) == 0 {
		return fmt.Errorf("profile %s: no columns", p.Key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.profiles[p.Key]; exists {
		return fmt.Errorf("profile already registered: %s", p.Key)
	}
	p.Columns = append([]columns.Field(nil), p.Columns...)
	r.profiles[p.Key] = p
	return nil
}

// Get returns the profile registered under key.
func (r *Registry) Get(key string) (Profile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[key]
	return p, ok
}

// All returns every profile sorted by key.
func (r *Registry) All() []Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Len returns the number of profiles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.profiles)
}
