package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/go-playground/locales/ar"
	"github.com/go-playground/locales/fr"
	ut "github.com/go-playground/universal-translator"

	"github.com/linarqa/linarqa-web/pkg/enums"
)

//go:embed locales/*.json
var catalogFS embed.FS

// Catalog holds one translator per UI language. French is the fallback for
// keys missing from another catalog.
type Catalog struct {
	uni      *ut.UniversalTranslator
	fallback ut.Translator
	// arity is the placeholder count per language and key.
	arity map[enums.Language]map[string]int
}

var placeholder = regexp.MustCompile(`\{(\d+)\}`)

// placeholders returns one more than the highest {N} in text.
func placeholders(text string) int {
	n := 0
	for _, m := range placeholder.FindAllStringSubmatch(text, -1) {
		if i, err := strconv.Atoi(m[1]); err == nil && i+1 > n {
			n = i + 1
		}
	}
	return n
}

// checkPlaceholders requires the {N} of text to read {0}, {1}, ... in order.
// The translator substitutes by position, so any other order renders the
// wrong params.
func checkPlaceholders(text string) error {
	for i, m := range placeholder.FindAllStringSubmatch(text, -1) {
		if m[1] != strconv.Itoa(i) {
			return fmt.Errorf("placeholder {%s} at position %d, want {%d}", m[1], i, i)
		}
	}
	return nil
}

// load adds the entries of one catalog file to trans and returns their
// placeholder counts.
func load(trans ut.Translator, lang enums.Language, raw []byte) (map[string]int, error) {
	entries, err := flatten(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s catalog: %w", lang, err)
	}
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	arity := make(map[string]int, len(keys))
	for _, k := range keys {
		if err := checkPlaceholders(entries[k]); err != nil {
			return nil, fmt.Errorf("%s %q: %w", lang, k, err)
		}
		arity[k] = placeholders(entries[k])
		if err := trans.Add(k, entries[k], false); err != nil {
			return nil, fmt.Errorf("add %s %q: %w", lang, k, err)
		}
	}
	return arity, nil
}

func NewCatalog() (*Catalog, error) {
	french := fr.New()
	uni := ut.New(french, french, ar.New())
	arity := make(map[enums.Language]map[string]int)

	for _, lang := range enums.Languages() {
		trans, found := uni.GetTranslator(lang.String())
		if !found {
			return nil, fmt.Errorf("no translator for %q", lang)
		}
		raw, err := catalogFS.ReadFile("locales/" + lang.String() + ".json")
		if err != nil {
			return nil, fmt.Errorf("read %s catalog: %w", lang, err)
		}
		if arity[lang], err = load(trans, lang, raw); err != nil {
			return nil, err
		}
	}

	fallback, _ := uni.GetTranslator(enums.DefaultLanguage.String())
	return &Catalog{uni: uni, fallback: fallback, arity: arity}, nil
}

// Translator returns the translator of lang, or the fallback one.
func (c *Catalog) Translator(lang enums.Language) ut.Translator {
	trans, found := c.uni.GetTranslator(lang.String())
	if !found {
		return c.fallback
	}
	return trans
}

// T translates key in lang. Params fill {0}, {1}, ... and missing ones
// render empty. A key known to no catalog is returned as is.
func (c *Catalog) T(lang enums.Language, key string, params ...string) string {
	if _, ok := c.arity[lang][key]; ok {
		if s, err := c.Translator(lang).T(key, pad(params, c.arity[lang][key])...); err == nil {
			return s
		}
	}
	if n, ok := c.arity[enums.DefaultLanguage][key]; ok {
		if s, err := c.fallback.T(key, pad(params, n)...); err == nil {
			return s
		}
	}
	return key
}

// Has reports whether any catalog knows key.
func (c *Catalog) Has(key string) bool {
	for _, keys := range c.arity {
		if _, ok := keys[key]; ok {
			return true
		}
	}
	return false
}

func pad(params []string, n int) []string {
	if len(params) >= n {
		return params
	}
	out := make([]string, n)
	copy(out, params)
	return out
}

// flatten turns nested catalog objects into dotted keys.
func flatten(raw []byte) (map[string]string, error) {
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	out := make(map[string]string)
	var walk func(prefix string, node map[string]any) error
	walk = func(prefix string, node map[string]any) error {
		for k, v := range node {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			switch val := v.(type) {
			case string:
				out[key] = val
			case map[string]any:
				if err := walk(key, val); err != nil {
					return err
				}
			default:
				return fmt.Errorf("key %q: unsupported value %T", key, v)
			}
		}
		return nil
	}
	if err := walk("", tree); err != nil {
		return nil, err
	}
	return out, nil
}
