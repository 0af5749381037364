// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService は企業が投稿する求人説明文（リッチテキストエディタのHTML）を
// 保存前にサニタイズし、閲覧者をXSSから保護する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 安全なタグと属性のみを通過させる。
package security

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はHTMLコンテンツのサニタイズ機能のインターフェースを定義する。
type ContentSanitizerService interface {
	// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(rawHTML string) string
}

// editorClassPattern はリッチテキストエディタが出力する書式クラス（インデント・揃え等）。
var editorClassPattern = regexp.MustCompile(`^ql-[a-z0-9-]+( ql-[a-z0-9-]+)*$`)

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// ポリシーの内容:
//   - 許可タグ: p, br, h1-h3, strong, em, u, s, ul, ol, li, blockquote, pre, code, a
//   - 禁止タグ: script, iframe, style, img および全てのon*イベント属性
//   - p, li, h1-h3: エディタの書式クラス（ql-*）のみ許可
//   - aタグ: http/https/mailtoのみ、target="_blank" と rel="noopener noreferrer" を自動付与
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "h1", "h2", "h3",
		"strong", "em", "u", "s",
		"ul", "ol", "li",
		"blockquote", "pre", "code",
	)
	p.AllowAttrs("class").Matching(editorClassPattern).OnElements("p", "li", "h1", "h2", "h3")

	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowRelativeURLs(false)
	p.RequireParseableURLs(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	return &contentSanitizer{
		policy: p,
	}
}

// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}
