// Package i18n loads the bn/en message bundle used by the result renderer and
// the terminal client.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"shikkha_backend/pkg/logger"
	"sync"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

type ctxKey struct{}

var (
	mu          sync.RWMutex
	bundle      *goi18n.Bundle
	defaultLang = "bn"
)

// Init loads every embedded locale file. lang is the fallback language.
func Init(lang string) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("parse language %q: %w", lang, err)
	}

	b := goi18n.NewBundle(tag)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return fmt.Errorf("read locales dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return fmt.Errorf("read locale file %s: %w", e.Name(), err)
		}
		if _, err := b.ParseMessageFileBytes(data, e.Name()); err != nil {
			return fmt.Errorf("parse locale file %s: %w", e.Name(), err)
		}
	}

	mu.Lock()
	bundle = b
	defaultLang = lang
	mu.Unlock()
	return nil
}

func currentBundle() *goi18n.Bundle {
	mu.RLock()
	b := bundle
	mu.RUnlock()
	if b != nil {
		return b
	}
	if err := Init("bn"); err != nil {
		logger.Log.Error("failed to load locales", zap.Error(err))
		return goi18n.NewBundle(language.Bengali)
	}
	mu.RLock()
	defer mu.RUnlock()
	return bundle
}

// NewLocalizer picks the first supported language from langs (Accept-Language
// values are accepted as is) and falls back to the bundle default.
func NewLocalizer(langs ...string) *goi18n.Localizer {
	b := currentBundle()
	mu.RLock()
	fallback := defaultLang
	mu.RUnlock()
	return goi18n.NewLocalizer(b, append(langs, fallback)...)
}

func WithLocalizer(ctx context.Context, loc *goi18n.Localizer) context.Context {
	return context.WithValue(ctx, ctxKey{}, loc)
}

// FromContext returns the request localizer or one for the default language.
func FromContext(ctx context.Context) *goi18n.Localizer {
	if loc, ok := ctx.Value(ctxKey{}).(*goi18n.Localizer); ok {
		return loc
	}
	return NewLocalizer()
}

// T translates a message by ID; a missing ID is returned unchanged.
func T(loc *goi18n.Localizer, msgID string) string {
	return Td(loc, msgID, nil)
}

// Td translates a message by ID with template data.
func Td(loc *goi18n.Localizer, msgID string, data map[string]any) string {
	s, err := loc.Localize(&goi18n.LocalizeConfig{
		MessageID:    msgID,
		TemplateData: data,
	})
	if err != nil {
		logger.Log.Warn("missing translation", zap.String("id", msgID), zap.Error(err))
		return msgID
	}
	return s
}

// Tp translates a pluralized message by ID.
func Tp(loc *goi18n.Localizer, msgID string, count int) string {
	s, err := loc.Localize(&goi18n.LocalizeConfig{
		MessageID:    msgID,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
	if err != nil {
		logger.Log.Warn("missing translation", zap.String("id", msgID), zap.Error(err))
		return msgID
	}
	return s
}
