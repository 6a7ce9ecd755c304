package speech

import "github.com/hegedustibor/htgo-tts/voices"

// DefaultLanguage is used for users who never picked one.
const DefaultLanguage = voices.English

// Language pairs a synthesis language code with its display name.
type Language struct {
	Code string
	Name string
}

// Languages is the fixed supported-language table, in menu order.
var Languages = []Language{
	{Code: voices.English, Name: "English"},
	{Code: voices.Spanish, Name: "Spanish"},
	{Code: voices.French, Name: "French"},
	{Code: voices.German, Name: "German"},
	{Code: voices.Italian, Name: "Italian"},
	{Code: voices.Portuguese, Name: "Portuguese"},
	{Code: voices.Russian, Name: "Russian"},
	{Code: voices.Hindi, Name: "Hindi"},
	{Code: voices.Japanese, Name: "Japanese"},
	{Code: voices.Korean, Name: "Korean"},
	{Code: voices.Malayalam, Name: "Malayalam"},
}

// Supported reports whether code is in the fixed language table.
func Supported(code string) bool {
	for _, l := range Languages {
		if l.Code == code {
			return true
		}
	}
	return false
}

// Name returns the display name for code, or fallback when unknown.
func Name(code, fallback string) string {
	for _, l := range Languages {
		if l.Code == code {
			return l.Name
		}
	}
	return fallback
}
