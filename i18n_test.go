package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试 NewI18n
func TestNewI18n(t *testing.T) {
	i18n, err := NewI18n("en")
	require.NoError(t, err)

	assert.Equal(t, "en", i18n.defaultLang)
	assert.Equal(t, []string{"en", "zh"}, i18n.Languages())

	_, err = NewI18n("fr")
	assert.Error(t, err)
}

// 测试 T 方法
func TestI18n_T(t *testing.T) {
	i18n := &I18n{
		translations: map[string]map[string]string{
			"en": {
				"hello":     "Hello",
				"world":     "World",
				"with_args": "Hello, %s!",
			},
			"es": {
				"hello":     "Hola",
				"world":     "Mundo",
				"with_args": "¡Hola, %s!",
			},
		},
		defaultLang: "en",
	}

	tests := []struct {
		lang     string
		key      string
		args     []interface{}
		expected string
	}{
		{"en", "hello", nil, "Hello"},
		{"es", "hello", nil, "Hola"},
		{"en", "world", nil, "World"},
		{"es", "world", nil, "Mundo"},
		{"fr", "hello", nil, "Hello"},     // Fallback to default language
		{"en", "unknown", nil, "unknown"}, // Key not found
		{"en", "with_args", []interface{}{"John"}, "Hello, John!"},
		{"es", "with_args", []interface{}{"Juan"}, "¡Hola, Juan!"},
	}

	for _, tt := range tests {
		t.Run(tt.lang+"/"+tt.key, func(t *testing.T) {
			assert.Equal(t, tt.expected, i18n.T(tt.lang, tt.key, tt.args...))
		})
	}
}

// 每个英文键都有中文翻译
func TestTranslationsComplete(t *testing.T) {
	for key := range translations["en"] {
		assert.Contains(t, translations["zh"], key)
	}
}
