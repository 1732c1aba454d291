package translate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/franz/wayfarer/internal/util"
)

// StubEngineConfig configures the stub engine behavior
type StubEngineConfig struct {
	// Models lists languages whose models are installed
	Models []string
	// Dictionary maps [targetLang][sourceText] to translated text.
	// Unknown text is returned as "[lang] text".
	Dictionary map[string]map[string]string
	// DownloadErr makes every Download fail
	DownloadErr error
	// TranslateErr makes every Translate fail
	TranslateErr error
	// Strict makes unknown text fail with ErrUnknownPhrase instead of
	// being echoed, so a Service falls through to the web endpoint
	Strict bool
}

// ErrUnknownPhrase is returned by a strict StubEngine for text it has no
// entry for
var ErrUnknownPhrase = errors.New("phrase not in phrasebook")

// DefaultStubEngineConfig returns a small English/Spanish/French setup
func DefaultStubEngineConfig() *StubEngineConfig {
	return &StubEngineConfig{
		Models: []string{"en", "es"},
		Dictionary: map[string]map[string]string{
			"es": {
				"Where is the train station?": "¿Dónde está la estación de tren?",
				"Thank you.":                  "Gracias.",
				"Exit":                        "Salida",
			},
			"fr": {
				"Where is the train station?": "Où est la gare ?",
				"Thank you.":                  "Merci.",
				"Exit":                        "Sortie",
			},
			"en": {
				"Salida": "Exit",
				"Sortie": "Exit",
			},
		},
	}
}

// StubEngine is a deterministic in-memory Engine
type StubEngine struct {
	config *StubEngineConfig

	mu         sync.Mutex
	models     map[string]bool
	downloads  []string
	translates int
}

// NewStubEngine creates a new stub engine with the given config
func NewStubEngine(config *StubEngineConfig) *StubEngine {
	if config == nil {
		config = DefaultStubEngineConfig()
	}
	models := make(map[string]bool, len(config.Models))
	for _, m := range config.Models {
		models[m] = true
	}
	return &StubEngine{config: config, models: models}
}

// HasModel reports whether the language model is installed
func (e *StubEngine) HasModel(lang string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.models[lang]
}

// Download installs a language model
func (e *StubEngine) Download(ctx context.Context, lang string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.downloads = append(e.downloads, lang)
	if e.config.DownloadErr != nil {
		return e.config.DownloadErr
	}
	e.models[lang] = true
	return nil
}

// Translate looks the text up in the dictionary
func (e *StubEngine) Translate(ctx context.Context, text, source, target string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.translates++

	if e.config.TranslateErr != nil {
		return "", e.config.TranslateErr
	}
	for _, lang := range []string{source, target} {
		if !e.models[lang] {
			return "", fmt.Errorf("%s: %w", lang, util.ErrModelMissing)
		}
	}

	if dict, ok := e.config.Dictionary[target]; ok {
		if translated, ok := dict[text]; ok {
			return translated, nil
		}
	}
	if e.config.Strict {
		return "", fmt.Errorf("%q: %w", text, ErrUnknownPhrase)
	}
	return "[" + target + "] " + text, nil
}

// Downloads returns the languages Download was asked for, in order
func (e *StubEngine) Downloads() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.downloads...)
}

// Calls returns how many times Translate ran
func (e *StubEngine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.translates
}
