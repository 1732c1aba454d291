// Package translate turns text from one language into another, preferring
// an on-device engine and falling back to the public web endpoint.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// ModelMissingText is returned as the translation when an on-device model is
// needed, absent, and downloading is not allowed
const ModelMissingText = "Translation model not downloaded"

// AutoDetect asks the web endpoint to detect the source language
const AutoDetect = "auto"

// ErrInvalidLanguage is returned for language codes that do not parse
var ErrInvalidLanguage = errors.New("invalid language code")

// Via names the path that produced a translation
type Via string

const (
	ViaNone     Via = "none"
	ViaIdentity Via = "identity"
	ViaEngine   Via = "engine"
	ViaWeb      Via = "web"
)

// Translation is the result of one request
type Translation struct {
	SourceText     string `json:"sourceText"`
	TranslatedText string `json:"translatedText"`
	SourceLang     string `json:"sourceLang"`
	TargetLang     string `json:"targetLang"`
	Via            Via    `json:"via"`
}

// ModelMissing reports whether the result is the model-missing placeholder
func (t Translation) ModelMissing() bool {
	return t.Via == ViaNone && t.TranslatedText == ModelMissingText
}

// Translator converts text between languages
type Translator interface {
	Translate(ctx context.Context, text, source, target string, allowDownload bool) (Translation, error)
}

// Engine is an on-device translation engine with per-language models
type Engine interface {
	HasModel(lang string) bool
	Download(ctx context.Context, lang string) error
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// NormalizeLang canonicalizes a language code to its base language, e.g.
// "EN-us" becomes "en". AutoDetect is passed through.
func NormalizeLang(code string) (string, error) {
	code = strings.TrimSpace(code)
	if strings.EqualFold(code, AutoDetect) {
		return AutoDetect, nil
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidLanguage, code, err)
	}
	base, _ := tag.Base()
	return base.String(), nil
}

// NormalizeText trims and NFC-normalizes text before it is translated or
// stored
func NormalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
