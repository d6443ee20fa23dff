package main

import (
	"fmt"
	"sort"
	"sync"
)

// I18n 保存各语言的消息模板
type I18n struct {
	translations map[string]map[string]string
	defaultLang  string
	mu           sync.RWMutex
}

var i18n *I18n

func init() {
	var err error
	i18n, err = NewI18n("en")
	if err != nil {
		panic(err)
	}
}

// NewI18n 使用 translations.go 中定义的消息目录
func NewI18n(defaultLang string) (*I18n, error) {
	if _, ok := translations[defaultLang]; !ok {
		return nil, fmt.Errorf("unknown default language %q", defaultLang)
	}
	i18n := &I18n{
		translations: translations,
		defaultLang:  defaultLang,
	}
	return i18n, nil
}

// Languages 返回已配置的语言代码
func (i *I18n) Languages() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	langs := make([]string, 0, len(i.translations))
	for lang := range i.translations {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// T 方法用于获取翻译并格式化字符串
func (i *I18n) T(lang, key string, args ...interface{}) string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	var message string

	// 尝试从指定语言中获取翻译
	if langMessages, ok := i.translations[lang]; ok {
		if msg, ok := langMessages[key]; ok {
			message = msg
		}
	}

	// 如果指定语言没有找到，尝试使用默认语言
	if message == "" {
		if langMessages, ok := i.translations[i.defaultLang]; ok {
			if msg, ok := langMessages[key]; ok {
				message = msg
			}
		}
	}

	// 如果仍然找不到翻译，直接返回键值
	if message == "" {
		return key
	}

	// 如果没有参数，直接返回消息模板
	if len(args) == 0 {
		return message
	}

	// 使用参数格式化消息模板
	return fmt.Sprintf(message, args...)
}
