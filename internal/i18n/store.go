package i18n

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/locales/currency"
	ut "github.com/go-playground/universal-translator"
	"github.com/shopspring/decimal"

	"github.com/linarqa/linarqa-web/pkg/enums"
	"github.com/linarqa/linarqa-web/pkg/storage"
)

// StorageKey holds {"state":{"currentLanguage":"fr"}}.
const StorageKey = "language-storage"

type persistedLanguage struct {
	State struct {
		CurrentLanguage enums.Language `json:"currentLanguage"`
	} `json:"state"`
	Version int `json:"version"`
}

// Locale is the part of the document the language store writes.
type Locale interface {
	SetLocale(lang, dir string)
}

// Store is one browser's language preference.
type Store struct {
	mu      sync.RWMutex
	local   *storage.Local
	catalog *Catalog
	current enums.Language
	trans   ut.Translator
}

// Open restores the persisted language and selects its translator before
// anything is rendered. Unknown or unreadable values fall back to def.
func Open(ctx context.Context, local *storage.Local, catalog *Catalog, def enums.Language) (*Store, error) {
	if local == nil || catalog == nil {
		return nil, fmt.Errorf("language store needs local storage and a catalog")
	}
	if !def.IsValid() {
		def = enums.DefaultLanguage
	}

	lang := def
	var persisted persistedLanguage
	if found, err := local.GetJSON(ctx, StorageKey, &persisted); err == nil && found && persisted.State.CurrentLanguage.IsValid() {
		lang = persisted.State.CurrentLanguage
	}

	return &Store{
		local:   local,
		catalog: catalog,
		current: lang,
		trans:   catalog.Translator(lang),
	}, nil
}

// SetLanguage switches the translator first, then persists the choice.
func (s *Store) SetLanguage(ctx context.Context, lang enums.Language) error {
	if !lang.IsValid() {
		return fmt.Errorf("unsupported language %q", lang)
	}

	s.mu.Lock()
	s.trans = s.catalog.Translator(lang)
	s.current = lang
	s.mu.Unlock()

	var persisted persistedLanguage
	persisted.State.CurrentLanguage = lang
	return s.local.SetJSON(ctx, StorageKey, persisted)
}

func (s *Store) Current() enums.Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) Dir() string {
	return s.Current().Dir()
}

// Apply writes lang and dir on the document.
func (s *Store) Apply(doc Locale) {
	lang := s.Current()
	doc.SetLocale(lang.String(), lang.Dir())
}

func (s *Store) T(key string, params ...string) string {
	return s.catalog.T(s.Current(), key, params...)
}

// Has reports whether key is a catalog key rather than literal text.
func (s *Store) Has(key string) bool {
	return s.catalog.Has(key)
}

func (s *Store) translator() ut.Translator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trans
}

// Translator exposes the active translator, e.g. for validation messages.
func (s *Store) Translator() ut.Translator {
	return s.translator()
}

func (s *Store) FmtDate(t time.Time) string {
	return s.translator().FmtDateLong(t)
}

func (s *Store) FmtDateShort(t time.Time) string {
	return s.translator().FmtDateShort(t)
}

// FmtCurrency formats an amount in Moroccan dirhams.
func (s *Store) FmtCurrency(amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	return s.translator().FmtCurrency(f, 2, currency.MAD)
}

func (s *Store) FmtNumber(n float64, digits uint64) string {
	return s.translator().FmtNumber(n, digits)
}

func (s *Store) MonthName(m time.Month) string {
	return s.translator().MonthWide(m)
}
