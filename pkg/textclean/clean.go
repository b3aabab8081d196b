package textclean

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// Locale selects the placeholder used when cleaning leaves nothing behind
type Locale string

const (
	// LocaleAuto picks the Arabic placeholder when the input contains Arabic script
	LocaleAuto Locale = ""
	LocaleEN   Locale = "en"
	LocaleAR   Locale = "ar"
)

const (
	PlaceholderEN = "No content available"
	PlaceholderAR = "لا يوجد محتوى متاح"
)

var (
	blockPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<head\b[^>]*>.*?</head>`),
		regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`),
		regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style>`),
		regexp.MustCompile(`(?is)<noscript\b[^>]*>.*?</noscript>`),
		regexp.MustCompile(`(?is)<ins\b[^>]*adsbygoogle.*?</ins>`),
		regexp.MustCompile(`(?is)<!--.*?-->`),
	}

	// Ad snippets leak into text in several shapes, ordered from most to least specific
	adPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)\(adsbygoogle\s*=\s*window\.adsbygoogle\s*\|\|\s*\[\]\)\.push\(\{.*?\}\);`),
		regexp.MustCompile(`(?s)\(adsbygoogle\s*=\s*window\.adsbygoogle\s*\|\|\s*\[\]\)\..+?;`),
		regexp.MustCompile(`(?i)adsbygoogle\s*=\s*window\.adsbygoogle\s*\|\|\s*\[\]\s*;?`),
		regexp.MustCompile(`(?i)window\.adsbygoogle\s*\|\|\s*\[\]\.push\(.*?\);?`),
		regexp.MustCompile(`(?i)adsbygoogle\.push\(.*?\);?`),
		regexp.MustCompile(`\*\s*\{\s*font[-\w]*:\s*[^}]+\}`),
		regexp.MustCompile(`(?i)https?://bit\.ly/[\w-]+`),
	}

	tagPattern        = regexp.MustCompile(`</?[a-zA-Z!][^>]*>`)
	entityAtPattern   = regexp.MustCompile(`^#?[a-zA-Z0-9]+;`)
	surrogatePattern  = regexp.MustCompile(`\\u([dD][89abAB][0-9a-fA-F]{2})\\u([dD][c-fC-F][0-9a-fA-F]{2})`)
	unicodeEscPattern = regexp.MustCompile(`\\u([0-9a-fA-F]{4})`)
)

// Clean turns scraped HTML or text into normalized plain text. It strips
// scripts, styles and ad snippets, strips tags, decodes entities, repairs
// Arabic-specific artifacts, collapses whitespace and repeated words, and
// substitutes a placeholder for empty output. Clean(Clean(x)) == Clean(x).
func Clean(raw string, locale Locale) string {
	useArabic := locale == LocaleAR || (locale == LocaleAuto && HasRTL(raw))

	// Every pass that changes the text removes at least one byte of markup or
	// escaping, so the input length bounds the number of passes.
	text := raw
	for i := 0; i <= len(raw); i++ {
		next := cleanPass(text)
		if next == text {
			break
		}
		text = next
	}

	if text == "" {
		if useArabic {
			return PlaceholderAR
		}
		return PlaceholderEN
	}
	return text
}

func cleanPass(text string) string {
	text = RepairUTF8(text)
	text = stripBlocks(text)
	text = tagPattern.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)

	if HasRTL(text) {
		text = html.UnescapeString(repairAmpersands(text))
		text = decodeUnicodeEscapes(text)
	}

	words := strings.Fields(text)
	return strings.Join(collapseRepeatedWords(words), " ")
}

// stripBlocks removes script/style blocks and ad snippets until none remain
func stripBlocks(text string) string {
	for {
		before := text
		for _, re := range blockPatterns {
			text = re.ReplaceAllString(text, " ")
		}
		for _, re := range adPatterns {
			text = re.ReplaceAllString(text, "")
		}
		if text == before {
			return text
		}
	}
}

// HasRTL reports whether s contains Arabic script (U+0600..U+06FF)
func HasRTL(s string) bool {
	for _, r := range s {
		if r >= 0x0600 && r <= 0x06FF {
			return true
		}
	}
	return false
}

// RepairUTF8 drops invalid byte sequences and applies NFC normalization
func RepairUTF8(s string) string {
	return norm.NFC.String(strings.ToValidUTF8(s, ""))
}

// repairAmpersands escapes every '&' that does not start an entity
func repairAmpersands(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '&' && !entityAtPattern.MatchString(s[i+1:]) {
			b.WriteString("&amp;")
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// decodeUnicodeEscapes replaces literal \uXXXX sequences, including surrogate
// pairs, with the characters they encode. Lone surrogates are dropped.
func decodeUnicodeEscapes(s string) string {
	if !strings.Contains(s, `\u`) {
		return s
	}
	s = surrogatePattern.ReplaceAllStringFunc(s, func(m string) string {
		sub := surrogatePattern.FindStringSubmatch(m)
		hi, _ := strconv.ParseUint(sub[1], 16, 16)
		lo, _ := strconv.ParseUint(sub[2], 16, 16)
		return string(utf16.DecodeRune(rune(hi), rune(lo)))
	})
	return unicodeEscPattern.ReplaceAllStringFunc(s, func(m string) string {
		v, err := strconv.ParseUint(m[2:], 16, 16)
		if err != nil || utf16.IsSurrogate(rune(v)) {
			return ""
		}
		return string(rune(v))
	})
}

// collapseRepeatedWords keeps one copy of any word repeated 3 or more times in a row
func collapseRepeatedWords(words []string) []string {
	out := make([]string, 0, len(words))
	for i := 0; i < len(words); {
		j := i + 1
		if isWord(words[i]) {
			for j < len(words) && strings.EqualFold(words[j], words[i]) {
				j++
			}
		}
		if j-i >= 3 {
			out = append(out, words[i])
		} else {
			out = append(out, words[i:j]...)
		}
		i = j
	}
	return out
}

func isWord(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && !unicode.Is(unicode.Mn, r) {
			return false
		}
	}
	return s != ""
}
