package theme

import (
	"html/template"
	"sort"
	"strings"
	"sync"

	"github.com/linarqa/linarqa-web/pkg/enums"
)

const (
	propertyPrefix = "--mode-"
	classPrefix    = "mode-"
)

// Document is the rendered <html> root: custom properties, classes, lang
// and dir. Colours are only written by Context through apply.
type Document struct {
	mu      sync.RWMutex
	props   map[string]string
	classes map[string]struct{}
	lang    string
	dir     string
}

func NewDocument() *Document {
	return &Document{
		props:   make(map[string]string),
		classes: make(map[string]struct{}),
		lang:    enums.DefaultLanguage.String(),
		dir:     enums.DefaultLanguage.Dir(),
	}
}

// apply writes every colour as --mode-<field> and swaps the mode class.
func (d *Document) apply(mode enums.AppMode, colors Colors) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, f := range colors.Fields() {
		d.props[propertyPrefix+f.Name] = f.Value
	}
	for class := range d.classes {
		if strings.HasPrefix(class, classPrefix) {
			delete(d.classes, class)
		}
	}
	d.classes[classPrefix+mode.String()] = struct{}{}
}

// SetLocale sets lang and dir.
func (d *Document) SetLocale(lang, dir string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lang = lang
	d.dir = dir
}

// Property returns the value of a custom property such as "--mode-primary".
func (d *Document) Property(name string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.props[name]
}

// Properties returns the custom properties in palette order.
func (d *Document) Properties() []Field {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Field, 0, len(d.props))
	for _, name := range FieldNames {
		if v, ok := d.props[propertyPrefix+name]; ok {
			out = append(out, Field{Name: propertyPrefix + name, Value: v})
		}
	}
	return out
}

func (d *Document) HasClass(class string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.classes[class]
	return ok
}

// Class is the value of the class attribute.
func (d *Document) Class() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	classes := make([]string, 0, len(d.classes))
	for c := range d.classes {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	return strings.Join(classes, " ")
}

func (d *Document) Lang() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lang
}

func (d *Document) Dir() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.dir
}

// Style is the inline style attribute of the root element. Values were
// validated as colours before they reached the document.
func (d *Document) Style() template.CSS {
	var b strings.Builder
	for i, f := range d.Properties() {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(f.Value)
		b.WriteByte(';')
	}
	return template.CSS(b.String())
}

// Stylesheet renders the properties as a :root rule.
func (d *Document) Stylesheet() string {
	var b strings.Builder
	b.WriteString(":root {\n")
	for _, f := range d.Properties() {
		b.WriteString("  ")
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(f.Value)
		b.WriteString(";\n")
	}
	b.WriteString("}\n")
	return b.String()
}
