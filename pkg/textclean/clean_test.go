package textclean

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean_StripsScriptsStylesAndAds(t *testing.T) {
	raw := `<style>.a{color:red}</style><p>Hello <b>world</b></p>
<script>var x = 1;</script>
(adsbygoogle = window.adsbygoogle || []).push({});
<ins class="adsbygoogle" data-ad-client="ca-pub-1"></ins>
* { font-size: 14px; } visit https://bit.ly/abc-123 now`

	assert.Equal(t, "Hello world visit now", Clean(raw, LocaleEN))
}

func TestClean_DecodesEntities(t *testing.T) {
	assert.Equal(t, `Tom & Jerry "quoted" café`, Clean("Tom &amp; Jerry &quot;quoted&quot; caf&eacute;", LocaleEN))
}

func TestClean_DoubleEncodedMarkupIsStripped(t *testing.T) {
	assert.Equal(t, "bold", Clean("&lt;b&gt;bold&lt;/b&gt;", LocaleEN))
}

func TestClean_ArabicUnicodeEscapes(t *testing.T) {
	raw := `درس \u0645\u0631\u062d\u0628\u0627 & more`
	assert.Equal(t, "درس مرحبا & more", Clean(raw, LocaleAuto))
}

func TestClean_SurrogatePairEscapes(t *testing.T) {
	assert.Equal(t, "درس 😀", Clean(`درس \ud83d\ude00`, LocaleAuto))
}

func TestClean_CollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", Clean(" a\t\n b   c ", LocaleEN))
}

func TestClean_CollapsesRepeatedWords(t *testing.T) {
	assert.Equal(t, "go fast", Clean("go go GO Go fast", LocaleEN))
	assert.Equal(t, "really really good", Clean("really really good", LocaleEN))
	assert.Equal(t, "مرحبا بكم", Clean("مرحبا مرحبا مرحبا بكم", LocaleAuto))
}

func TestClean_Placeholder(t *testing.T) {
	assert.Equal(t, PlaceholderEN, Clean("", LocaleEN))
	assert.Equal(t, PlaceholderEN, Clean("<script>x()</script>", LocaleAuto))
	assert.Equal(t, PlaceholderAR, Clean("   ", LocaleAR))
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		"<div>Hello&nbsp;&amp;amp; world</div>",
		"&amp;lt;script&amp;gt;alert(1)&amp;lt;/script&amp;gt; after",
		`عربي ال & تجربة`,
		"word word word word other other other",
		"a < b and c > d",
		"\xff\xfe broken utf8 é",
		PlaceholderAR,
		"<p>مرحبا</p> <!-- comment --> <style>x</style>",
	}
	for _, in := range inputs {
		once := Clean(in, LocaleAuto)
		assert.Equal(t, once, Clean(once, LocaleAuto), "input %q", in)
	}
}

func TestClean_PreservesComparisons(t *testing.T) {
	assert.Equal(t, "a < b and c > d", Clean("a < b and c > d", LocaleEN))
}

func TestHasRTL(t *testing.T) {
	assert.True(t, HasRTL("hello مرحبا"))
	assert.False(t, HasRTL("hello"))
}

func TestRepairUTF8(t *testing.T) {
	assert.Equal(t, "ab", RepairUTF8("a\xffb"))
	assert.Equal(t, "é", RepairUTF8("é"))
}

func TestNormalizeStrings(t *testing.T) {
	type inner struct {
		Value string
	}
	type record struct {
		Name  string
		Items []inner
		Extra map[string]any
	}
	r := &record{
		Name:  "bad\xff",
		Items: []inner{{Value: "x\xfey"}},
		Extra: map[string]any{"k": "v\xff", "n": 1},
	}

	NormalizeStrings(r)

	assert.Equal(t, "bad", r.Name)
	assert.Equal(t, "xy", r.Items[0].Value)
	assert.Equal(t, "v", r.Extra["k"])
	assert.Equal(t, 1, r.Extra["n"])
}

func TestClean_DeeplyNestedEntitiesReachFixpoint(t *testing.T) {
	for _, depth := range []int{1, 9, 10, 40} {
		raw := "x &" + strings.Repeat("amp;", depth) + "lt;b"
		once := Clean(raw, LocaleEN)
		assert.Equal(t, once, Clean(once, LocaleEN), "depth %d", depth)
		assert.NotContains(t, once, "amp;", "depth %d", depth)
	}
}
