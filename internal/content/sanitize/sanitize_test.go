package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRichText_StripsScripts(t *testing.T) {
	in := `<p>Market update</p><script>alert("pwn")</script>`
	out := RichText(in)
	assert.Contains(t, out, "<p>Market update</p>")
	assert.NotContains(t, out, "script")
}

func TestRichText_KeepsBasicMarkup(t *testing.T) {
	in := `<h2>Why sell now</h2><ul><li><strong>Low</strong> inventory</li></ul>`
	assert.Equal(t, in, RichText(in))
}

func TestRichText_StripsEventHandlers(t *testing.T) {
	out := RichText(`<p onclick="steal()">hello</p>`)
	assert.Equal(t, "<p>hello</p>", out)
}

func TestRichText_AllowsSafeLinks(t *testing.T) {
	out := RichText(`<a href="https://bendhomes.us/market-report">report</a>`)
	assert.Contains(t, out, `href="https://bendhomes.us/market-report"`)

	out = RichText(`<a href="javascript:alert(1)">x</a>`)
	assert.NotContains(t, out, "javascript")
}

func TestRichTextProps(t *testing.T) {
	props := map[string]interface{}{
		"html":  `<p>ok</p><script>bad()</script>`,
		"title": "untouched",
		"count": 3,
	}

	out := RichTextProps(props, "html")
	assert.Equal(t, "<p>ok</p>", out["html"])
	assert.Equal(t, "untouched", out["title"])
	assert.Equal(t, 3, out["count"])

	assert.Nil(t, RichTextProps(nil, "html"))
}
