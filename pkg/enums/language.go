package enums

// Language is a UI language.
type Language string

const (
	LanguageFrench Language = "fr"
	LanguageArabic Language = "ar"
)

// DefaultLanguage is the fallback catalog.
const DefaultLanguage = LanguageFrench

var validLanguages = []Language{LanguageFrench, LanguageArabic}

func Languages() []Language {
	return append([]Language(nil), validLanguages...)
}

func (l Language) String() string {
	return string(l)
}

func (l Language) IsValid() bool {
	return contains(validLanguages, l)
}

// Dir returns the text direction the language is written in.
func (l Language) Dir() string {
	if l == LanguageArabic {
		return "rtl"
	}
	return "ltr"
}

func ParseLanguage(value string) (Language, error) {
	return parse(validLanguages, value, "language")
}
