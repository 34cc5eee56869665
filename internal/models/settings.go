package models

type Industry string

const (
	IndustryManufacturing Industry = "Manufacturing"
	IndustryRetail        Industry = "Retail"
	IndustryAgriculture   Industry = "Agriculture"
	IndustryServices      Industry = "Services"
	IndustryLogistics     Industry = "Logistics"
	IndustryECommerce     Industry = "E-commerce"
)

var Industries = []Industry{
	IndustryManufacturing,
	IndustryRetail,
	IndustryAgriculture,
	IndustryServices,
	IndustryLogistics,
	IndustryECommerce,
}

const DefaultIndustry = IndustryRetail

func (i Industry) Valid() bool {
	for _, v := range Industries {
		if v == i {
			return true
		}
	}
	return false
}

type Language string

const (
	LanguageEnglish  Language = "English"
	LanguageHindi    Language = "Hindi"
	LanguageGujarati Language = "Gujarati"
	LanguageMarathi  Language = "Marathi"
	LanguageBengali  Language = "Bengali"
	LanguageTamil    Language = "Tamil"
	LanguageTelugu   Language = "Telugu"
)

var Languages = []Language{
	LanguageEnglish,
	LanguageHindi,
	LanguageGujarati,
	LanguageMarathi,
	LanguageBengali,
	LanguageTamil,
	LanguageTelugu,
}

const DefaultLanguage = LanguageEnglish

func (l Language) Valid() bool {
	for _, v := range Languages {
		if v == l {
			return true
		}
	}
	return false
}

// Preferences are the user-selected analysis context.
type Preferences struct {
	Industry Industry `json:"industry"`
	Language Language `json:"language"`
}

func DefaultPreferences() Preferences {
	return Preferences{Industry: DefaultIndustry, Language: DefaultLanguage}
}

// LastInput is the raw material of the most recent analysis, kept so the
// report can be regenerated when the language changes.
type LastInput struct {
	Filename string     `json:"filename"`
	Text     string     `json:"text"`
	Rows     [][]string `json:"rows,omitempty"`
}
