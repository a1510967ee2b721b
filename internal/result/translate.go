package result

import (
	"regexp"
	"sort"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/pkg/errors"
)

// compilerPhrases maps known English compiler phrases to their Chinese
// rendering. English is the identity locale and needs no entries.
var compilerPhrases = map[string]map[string]string{
	"zh": {
		"error:":                       "错误：",
		"warning:":                     "警告：",
		"undefined reference":          "未定义的引用",
		"expected":                     "期望",
		"before":                       "之前",
		"missing":                      "缺少",
		"declared":                     "声明",
		"redeclaration":                "重复声明",
		"cannot convert":               "无法转换",
		"no matching function":         "没有匹配的函数",
		"was not declared":             "未声明",
		"in this scope":                "在此作用域中",
		"syntax error":                 "语法错误",
		"expected ';'":                 "期望分号",
		"expected ')'":                 "期望右括号",
		"expected }":                   "期望右花括号",
		"expected identifier":          "期望标识符",
		"return type":                  "返回类型",
		"segmentation fault":           "段错误",
		"runtime error":                "运行时错误",
		"timeout":                      "超时",
		"memory limit exceeded":        "内存超限",
		"missing matching brace":       "缺少匹配的大括号",
		"missing matching parenthesis": "缺少匹配的圆括号",
	},
}

// Translator localizes compiler diagnostics by replacing the known English
// phrases, longest first, with the phrases of the configured locale.
type Translator struct {
	locale  string
	trans   ut.Translator
	phrases []phrase
}

type phrase struct {
	pattern *regexp.Regexp
	key     string
}

// NewTranslator returns a translator for the given locale, "en" or "zh".
func NewTranslator(locale string) (*Translator, error) {
	english := en.New()
	uni := ut.New(english, english, zh.New())

	trans, found := uni.GetTranslator(locale)

	if !found {
		return nil, errors.Errorf("unsupported diagnostics locale %s", locale)
	}

	translator := &Translator{locale: locale, trans: trans}

	for key, text := range compilerPhrases[locale] {
		if err := trans.Add(key, text, false); err != nil {
			return nil, errors.Wrapf(err, "failed to register phrase %q", key)
		}

		translator.phrases = append(translator.phrases, phrase{
			pattern: regexp.MustCompile("(?i)" + regexp.QuoteMeta(key)),
			key:     key,
		})
	}

	sort.Slice(translator.phrases, func(i, j int) bool {
		if len(translator.phrases[i].key) == len(translator.phrases[j].key) {
			return translator.phrases[i].key < translator.phrases[j].key
		}

		return len(translator.phrases[i].key) > len(translator.phrases[j].key)
	})

	return translator, nil
}

// Locale returns the locale the translator renders into.
func (t *Translator) Locale() string {
	if t == nil {
		return "en"
	}

	return t.locale
}

// Translate localizes the message. A nil translator returns it unchanged.
func (t *Translator) Translate(message string) string {
	if t == nil {
		return message
	}

	for _, p := range t.phrases {
		text, err := t.trans.T(p.key)

		if err != nil {
			continue
		}

		message = p.pattern.ReplaceAllLiteralString(message, text)
	}

	return message
}
