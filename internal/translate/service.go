package translate

import (
	"context"
	"errors"
	"fmt"

	"github.com/franz/wayfarer/internal/report"
	"github.com/franz/wayfarer/internal/util"
)

var _ Translator = (*Service)(nil)

// Service translates with an on-device engine when it can and falls back
// to the web endpoint when the engine fails
type Service struct {
	engine Engine
	web    *WebClient
	logger *report.EventLogger
}

// ServiceConfig holds service configuration. Either collaborator may be nil.
type ServiceConfig struct {
	Engine Engine
	Web    *WebClient
	Logger *report.EventLogger
}

// NewService creates a new Service
func NewService(cfg *ServiceConfig) *Service {
	return &Service{
		engine: cfg.Engine,
		web:    cfg.Web,
		logger: cfg.Logger,
	}
}

// Translate converts text from source to target.
//
// A missing on-device model with allowDownload false yields a successful
// result whose text is ModelMissingText. Engine failures, including a
// failed model download, fall through to the web endpoint.
func (s *Service) Translate(ctx context.Context, text, source, target string, allowDownload bool) (Translation, error) {
	src, err := NormalizeLang(source)
	if err != nil {
		return Translation{}, err
	}
	tgt, err := NormalizeLang(target)
	if err != nil {
		return Translation{}, err
	}
	if tgt == AutoDetect {
		return Translation{}, fmt.Errorf("%w: target cannot be %q", ErrInvalidLanguage, AutoDetect)
	}

	text = NormalizeText(text)
	out := Translation{SourceText: text, SourceLang: src, TargetLang: tgt}

	if text == "" || src == tgt {
		out.TranslatedText = text
		out.Via = ViaIdentity
		return out, nil
	}

	if s.engine != nil && src != AutoDetect {
		translated, handled, err := s.viaEngine(ctx, text, src, tgt, allowDownload)
		if handled {
			out.TranslatedText = translated
			out.Via = ViaEngine
			if translated == ModelMissingText {
				out.Via = ViaNone
			}
			s.logger.LogTranslate(src, tgt, string(out.Via), nil)
			return out, nil
		}
		switch {
		case errors.Is(err, ErrUnknownPhrase):
			util.DebugLog("Not in phrasebook, trying web")
		case err != nil:
			util.WarnLog("On-device translation failed, trying web: %v", err)
		}
	}

	if s.web == nil {
		err := fmt.Errorf("no translation backend available: %w", util.ErrUnavailable)
		s.logger.LogTranslate(src, tgt, string(ViaWeb), err)
		return Translation{}, err
	}

	translated, detected, err := s.web.Translate(ctx, text, src, tgt)
	s.logger.LogTranslate(src, tgt, string(ViaWeb), err)
	if err != nil {
		return Translation{}, fmt.Errorf("web translation failed: %w", err)
	}

	if src == AutoDetect && detected != "" {
		if lang, err := NormalizeLang(detected); err == nil {
			out.SourceLang = lang
		}
	}
	out.TranslatedText = NormalizeText(translated)
	out.Via = ViaWeb
	return out, nil
}

// viaEngine reports handled=true when the engine produced the final answer,
// which includes the model-missing placeholder
func (s *Service) viaEngine(ctx context.Context, text, src, tgt string, allowDownload bool) (string, bool, error) {
	for _, lang := range []string{src, tgt} {
		if s.engine.HasModel(lang) {
			continue
		}
		if !allowDownload {
			util.DebugLog("Model for %s not downloaded", lang)
			return ModelMissingText, true, nil
		}
		util.InfoLog("Downloading translation model for %s", lang)
		if err := s.engine.Download(ctx, lang); err != nil {
			return "", false, fmt.Errorf("model download for %s: %w", lang, err)
		}
	}

	translated, err := s.engine.Translate(ctx, text, src, tgt)
	if err != nil {
		return "", false, err
	}
	return NormalizeText(translated), true, nil
}
