// Package client は顧客管理のドメインロジックを提供する。
package client

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// maxFaviconSize はfaviconの最大サイズ（2MB）。
const maxFaviconSize = 2 * 1024 * 1024

// faviconTimeout はfavicon取得のタイムアウト。
const faviconTimeout = 5 * time.Second

// SSRFValidator はSSRF検証のインターフェース。
// security.SSRFGuardServiceを抽象化してテスタビリティを向上させる。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// FaviconFetcherService は顧客サイトのfavicon取得のインターフェース。
type FaviconFetcherService interface {
	// FetchForSite はサイトURLからfaviconを検出して取得する。
	// サイトのHTMLのlink要素を優先し、見つからなければ/favicon.icoを試行する。
	// 取得失敗時はnilデータと空MIMEを返す（エラーは返さない）。
	FetchForSite(ctx context.Context, siteURL string) (data []byte, mimeType string, err error)
}

// FaviconFetcher は顧客サイトのfavicon取得機能の実装。
// 取引先一覧に会社アイコンを表示するために使用される。
type FaviconFetcher struct {
	ssrfGuard SSRFValidator
}

// NewFaviconFetcher はFaviconFetcherの新しいインスタンスを生成する。
func NewFaviconFetcher(ssrfGuard SSRFValidator) *FaviconFetcher {
	return &FaviconFetcher{
		ssrfGuard: ssrfGuard,
	}
}

// FetchForSite はサイトURLからfaviconを検出して取得する。
// 1. サイトのHTMLを取得し、headのlink要素からアイコンURLを検出
// 2. 検出できなければ /favicon.ico を試行
// 取得失敗はエラーにせず、nilデータを返す（faviconは表示補助であり必須ではない）。
func (f *FaviconFetcher) FetchForSite(ctx context.Context, siteURL string) ([]byte, string, error) {
	if siteURL == "" {
		return nil, "", nil
	}

	if f.ssrfGuard != nil {
		if err := f.ssrfGuard.ValidateURL(siteURL); err != nil {
			slog.Warn("favicon取得: SSRFブロック", "url", siteURL, "error", err)
			return nil, "", nil
		}
	}

	// サイトのHTMLからlink要素のアイコンURLを検出
	if iconURL := f.discoverIconURL(ctx, siteURL); iconURL != "" {
		if data, mimeType := f.fetchIcon(ctx, iconURL); data != nil {
			return data, mimeType, nil
		}
	}

	// フォールバック: /favicon.ico
	fallback := defaultFaviconURL(siteURL)
	if fallback == "" {
		return nil, "", nil
	}
	data, mimeType := f.fetchIcon(ctx, fallback)
	return data, mimeType, nil
}

// discoverIconURL はサイトのHTMLを取得し、headのlink要素からアイコンURLを検出する。
// 検出できない場合は空文字列を返す。
func (f *FaviconFetcher) discoverIconURL(ctx context.Context, siteURL string) string {
	client := f.getHTTPClient()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, siteURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "CatchUp/1.0")
	req.Header.Set("Accept", "text/html, */*")

	resp, err := client.Do(req)
	if err != nil {
		slog.Warn("favicon検出: サイト取得失敗", "url", siteURL, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ""
	}

	// HTMLの先頭のみ読めば十分（headにアイコンリンクが含まれる）
	const maxHTMLSize = 512 * 1024
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxHTMLSize))
	if err != nil {
		return ""
	}

	return ParseIconLinkFromHTML(body, siteURL)
}

// ParseIconLinkFromHTML はHTMLのheadタグからfaviconのlink要素を解析・検出する。
// rel="icon"系のリンクのうち最初に現れたものを採用し、
// 相対URLはbaseURLを基準に絶対URLに解決される。
// 検出できない場合は空文字列を返す。
func ParseIconLinkFromHTML(htmlBody []byte, baseURL string) string {
	baseU, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}

	tokenizer := html.NewTokenizer(bytes.NewReader(htmlBody))
	inHead := false

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return ""

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, hasAttr := tokenizer.TagName()
			tagName := string(tn)

			if tagName == "head" {
				inHead = true
				continue
			}

			if tagName == "body" {
				// bodyに入ったらheadの解析を終了
				return ""
			}

			if !inHead || tagName != "link" || !hasAttr {
				continue
			}

			// link要素の属性を解析
			var rel, href string
			for {
				key, val, more := tokenizer.TagAttr()
				switch strings.ToLower(string(key)) {
				case "rel":
					rel = strings.ToLower(string(val))
				case "href":
					href = string(val)
				}
				if !more {
					break
				}
			}

			if href == "" || !isIconRel(rel) {
				continue
			}

			if resolved := resolveURL(baseU, href); resolved != "" {
				return resolved
			}

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "head" {
				return ""
			}
		}
	}
}

// isIconRel はlink要素のrel属性がfaviconを指すかを判定する。
func isIconRel(rel string) bool {
	switch rel {
	case "icon", "shortcut icon", "apple-touch-icon":
		return true
	}
	return false
}

// fetchIcon は指定URLからアイコン画像を取得する。
// 取得失敗、サイズ超過、画像以外のContent-Typeの場合はnilを返す。
func (f *FaviconFetcher) fetchIcon(ctx context.Context, iconURL string) ([]byte, string) {
	if f.ssrfGuard != nil {
		if err := f.ssrfGuard.ValidateURL(iconURL); err != nil {
			slog.Warn("favicon取得: SSRFブロック", "url", iconURL, "error", err)
			return nil, ""
		}
	}

	client := f.getHTTPClient()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, iconURL, nil)
	if err != nil {
		return nil, ""
	}
	req.Header.Set("User-Agent", "CatchUp/1.0")

	resp, err := client.Do(req)
	if err != nil {
		slog.Warn("favicon取得: HTTPリクエスト失敗", "url", iconURL, "error", err)
		return nil, ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("favicon取得: HTTPステータス異常", "url", iconURL, "status", resp.StatusCode)
		return nil, ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFaviconSize+1))
	if err != nil {
		return nil, ""
	}
	if int64(len(body)) > maxFaviconSize {
		slog.Warn("favicon取得: サイズ超過", "url", iconURL, "size", len(body))
		return nil, ""
	}

	mimeType := extractMimeType(resp.Header.Get("Content-Type"))
	if !isImageMime(mimeType) {
		slog.Warn("favicon取得: 画像以外のContent-Type", "url", iconURL, "contentType", mimeType)
		return nil, ""
	}

	return body, mimeType
}

// getHTTPClient はHTTPクライアントを取得する。
// SSRFGuardが設定されている場合はSSRF防止付きクライアントを返す。
func (f *FaviconFetcher) getHTTPClient() *http.Client {
	if f.ssrfGuard != nil {
		return f.ssrfGuard.NewSafeClient(faviconTimeout, maxFaviconSize)
	}
	return &http.Client{Timeout: faviconTimeout}
}

// defaultFaviconURL はサイトURLからデフォルトのfavicon URLを組み立てる。
func defaultFaviconURL(siteURL string) string {
	u, err := url.Parse(siteURL)
	if err != nil {
		return ""
	}
	u.Path = "/favicon.ico"
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// resolveURL は相対URLをベースURLを基準に絶対URLに解決する。
func resolveURL(base *url.URL, rawRef string) string {
	ref, err := url.Parse(rawRef)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// extractMimeType はContent-Typeヘッダーからメディアタイプを抽出する。
func extractMimeType(contentType string) string {
	if contentType == "" {
		return ""
	}
	parts := strings.SplitN(contentType, ";", 2)
	return strings.TrimSpace(strings.ToLower(parts[0]))
}

// isImageMime はMIMEタイプが画像かどうかを判定する。
func isImageMime(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

// compile-time interface check
var _ FaviconFetcherService = (*FaviconFetcher)(nil)
