package security

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// DescriptionExcerptLength は一覧レスポンスの description_excerpt の文字数（rune数）。
const DescriptionExcerptLength = 150

// Excerpt はHTMLからテキストのみを取り出し、先頭n文字（rune単位）のプレビューを返す。
// 連続する空白は1つにまとめ、切り詰めた場合は末尾に "…" を付与する。
// script/style要素の中身は含めない。
func Excerpt(rawHTML string, n int) string {
	if n <= 0 {
		return ""
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(rawHTML))
	skip := 0

loop:
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF または不正な入力。ここまでのテキストを使う
			break loop
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				skip++
			case "br", "p", "li", "h1", "h2", "h3", "blockquote", "pre":
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				if skip > 0 {
					skip--
				}
			case "p", "li", "h1", "h2", "h3", "blockquote", "pre":
				b.WriteByte(' ')
			}
		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			if string(name) == "br" {
				b.WriteByte(' ')
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}

	text := strings.Join(strings.Fields(b.String()), " ")
	if utf8.RuneCountInString(text) <= n {
		return text
	}

	runes := []rune(text)
	return strings.TrimRight(string(runes[:n]), " ") + "…"
}
