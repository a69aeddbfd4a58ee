package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown_KeepsLineBreaks(t *testing.T) {
	out := RenderMarkdown("the sea\nthe salt\nthe sky")

	assert.Contains(t, out, "the sea<br")
	assert.Contains(t, out, "the salt<br")
}

func TestRenderMarkdown_StripsScripts(t *testing.T) {
	out := RenderMarkdown("*waves*\n\n<script>alert(1)</script>")

	assert.Contains(t, out, "<em>waves</em>")
	assert.NotContains(t, out, "<script>")
}

func TestStringToInt(t *testing.T) {
	assert.Equal(t, 3, StringToInt("3", 1))
	assert.Equal(t, 1, StringToInt("", 1))
	assert.Equal(t, 1, StringToInt("three", 1))
}

func TestRenderMarkdown_CachedByContent(t *testing.T) {
	calls := 0
	counting := func(s string) string {
		calls++
		return render(s)
	}

	first := cachedRender("a line only this test uses", counting)
	second := cachedRender("a line only this test uses", counting)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	cachedRender("a different line only this test uses", counting)
	assert.Equal(t, 2, calls)
}

func TestExcerpt(t *testing.T) {
	html := RenderMarkdown("first line\nsecond line\n\nthird stanza\nfourth\nfifth")

	assert.Equal(t, "first line\nsecond line\nthird stanza", Excerpt(html, 3))
	assert.Equal(t, "first line\nsecond line\nthird stanza\nfourth\nfifth", Excerpt(html, 10))
	assert.Empty(t, Excerpt("", 3))
	assert.Empty(t, Excerpt(html, 0))
}
