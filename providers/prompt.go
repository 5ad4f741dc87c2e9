package providers

import "fmt"

// Language is a supported language code with its display name
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Languages lists the languages offered to users, in display order
var Languages = []Language{
	{Code: "en-US", Name: "English"},
	{Code: "es-ES", Name: "Spanish"},
	{Code: "fr-FR", Name: "French"},
	{Code: "de-DE", Name: "German"},
	{Code: "it-IT", Name: "Italian"},
	{Code: "pt-PT", Name: "Portuguese"},
	{Code: "zh-CN", Name: "Chinese"},
	{Code: "ja-JP", Name: "Japanese"},
	{Code: "ru-RU", Name: "Russian"},
	{Code: "ur-PK", Name: "Urdu"},
	{Code: "hi-IN", Name: "Hindi"},
	{Code: "ar-SA", Name: "Arabic"},
}

var languageNames = func() map[string]string {
	names := make(map[string]string, len(Languages))
	for _, l := range Languages {
		names[l.Code] = l.Name
	}
	return names
}()

// LanguageName maps a language code to its name. Unknown codes are returned as is.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

// IsSupportedLanguage reports whether code is in Languages
func IsSupportedLanguage(code string) bool {
	_, ok := languageNames[code]
	return ok
}

// SystemPrompt returns the instruction sent ahead of the text to translate
func SystemPrompt(sourceLanguage, targetLanguage string) string {
	return fmt.Sprintf("You are a professional medical translator. Translate the following text from %s to %s. "+
		"Provide only the translation without any additional text or explanations. Maintain medical terminology accuracy.",
		LanguageName(sourceLanguage), LanguageName(targetLanguage))
}
