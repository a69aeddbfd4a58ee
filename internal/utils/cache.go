package utils

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

const renderCacheSize = 500

// renderCache maps a sha256 of the markdown source to its sanitized HTML.
// Entries are content-addressed, so an edited poem simply misses.
var renderCache = mustLRU(renderCacheSize)

func mustLRU(size int) *lru.Cache[string, string] {
	c, err := lru.New[string, string](size)
	if err != nil {
		panic(err)
	}
	return c
}

func sourceKey(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

func cachedRender(source string, render func(string) string) string {
	key := sourceKey(source)
	if html, ok := renderCache.Get(key); ok {
		return html
	}
	html := render(source)
	renderCache.Add(key, html)
	return html
}
