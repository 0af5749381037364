package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/jobboard/internal/model"
)

// WindowLimiter はキーごとに「window内にlimit回まで」を判定するリミッター。
// LocalLimiter（プロセス内）とRedisLimiter（複数インスタンス共有）が実装する。
type WindowLimiter interface {
	Allow(key string, limit int, window time.Duration) bool
}

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralLimit    int           // API全般: プリンシパル（未認証はIP）ごとのwindow内上限
	AuthLimit       int           // 登録・ログイン: IPごとのwindow内上限
	Window          time.Duration // 計測ウィンドウ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
	// TrustedProxies はX-Forwarded-Forを信用する接続元のアドレス範囲。
	// 空の場合は転送ヘッダを一切参照せず、ソケットのアドレスのみで識別する。
	TrustedProxies []netip.Prefix
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// API全般 120 req/min、登録・ログイン 10 req/min/IP。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralLimit:    120,
		AuthLimit:       10,
		Window:          time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// keyedLimiter はキーごとのトークンバケットとアクセス時刻を保持する。
type keyedLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// LocalLimiter はプロセス内のキー別トークンバケットによるWindowLimiter。
// バーストはlimit、補充速度はlimit/windowとなる。
type LocalLimiter struct {
	mu       sync.Mutex
	limiters map[string]*keyedLimiter
	ttl      time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewLocalLimiter は新しいLocalLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewLocalLimiter(cleanupInterval time.Duration) *LocalLimiter {
	l := &LocalLimiter{
		limiters: make(map[string]*keyedLimiter),
		ttl:      cleanupInterval * 2,
		stopCh:   make(chan struct{}),
	}

	go l.cleanupLoop(cleanupInterval)

	return l
}

// Allow はキーのバケットからトークンを1つ消費できればtrueを返す。
func (l *LocalLimiter) Allow(key string, limit int, window time.Duration) bool {
	if key == "" || limit <= 0 || window <= 0 {
		return true
	}

	l.mu.Lock()
	kl, exists := l.limiters[key]
	if !exists {
		every := rate.Limit(float64(limit) / window.Seconds())
		kl = &keyedLimiter{limiter: rate.NewLimiter(every, limit)}
		l.limiters[key] = kl
	}
	kl.lastAccess = time.Now()
	l.mu.Unlock()

	return kl.limiter.Allow()
}

// Len は現在管理されているエントリ数を返す。テスト用。
func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (l *LocalLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (l *LocalLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup(time.Now())
		case <-l.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (l *LocalLimiter) cleanup(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, kl := range l.limiters {
		if now.Sub(kl.lastAccess) > l.ttl {
			delete(l.limiters, key)
		}
	}
}

// RateLimiter はAPI全般と登録・ログインの2種類のレート制限ミドルウェアを提供する。
type RateLimiter struct {
	config  RateLimiterConfig
	general WindowLimiter
	auth    WindowLimiter
}

// NewRateLimiter はRateLimiterを生成する。
// authにはREDIS_URL設定時にRedisLimiterを渡し、未設定時はgeneralと同じLocalLimiterを渡す。
func NewRateLimiter(config RateLimiterConfig, general, auth WindowLimiter) *RateLimiter {
	return &RateLimiter{config: config, general: general, auth: auth}
}

// GeneralMiddleware はAPI全般のレート制限ミドルウェアを返す。
// 認証済みリクエストはプリンシパル単位、未認証リクエストはクライアントIP単位で制限する。
// 認証済みルートではNewAuthMiddlewareの後に配置する。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware("general", rl.general, rl.config.GeneralLimit, func(r *http.Request) string {
		if identity, ok := IdentityFromContext(r.Context()); ok {
			return "general:" + string(identity.Role) + ":" + identity.ID
		}
		return "general:ip:" + rl.clientIP(r)
	})
}

// AuthMiddleware は登録・ログイン専用のレート制限ミドルウェアを返す。
// API全般のレート制限とは独立に、クライアントIP単位で制限する。
func (rl *RateLimiter) AuthMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware("auth", rl.auth, rl.config.AuthLimit, func(r *http.Request) string {
		return "auth:" + rl.clientIP(r)
	})
}

func (rl *RateLimiter) middleware(limitType string, limiter WindowLimiter, limit int, keyFn func(*http.Request) string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			if limiter == nil || limiter.Allow(key, limit, rl.config.Window) {
				next.ServeHTTP(w, r)
				return
			}

			writeRateLimitResponse(w, limit, rl.config.Window)
			slog.Warn("rate limit exceeded",
				slog.String("key", key),
				slog.String("limit_type", limitType),
			)
		})
	}
}

// ClientIP はリクエストの接続元（ソケット）のIPを返す。転送ヘッダは参照しない。
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// clientIP はレート制限のキーに使う送信元IPを返す。
// 接続元が信頼済みプロキシの場合に限り、X-Forwarded-Forを右から辿り
// 最初に現れる信頼済みでないアドレスを送信元とみなす。
func (rl *RateLimiter) clientIP(r *http.Request) string {
	peer := ClientIP(r)
	if !rl.trusted(peer) {
		return peer
	}

	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		addr, err := netip.ParseAddr(hop)
		if err != nil {
			// 不正な値より左は偽装されうる
			return peer
		}
		if !rl.trusted(addr.String()) {
			return addr.Unmap().String()
		}
	}
	return peer
}

func (rl *RateLimiter) trusted(ip string) bool {
	if len(rl.config.TrustedProxies) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range rl.config.TrustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ParseTrustedProxies はカンマ区切りのCIDRまたはIPアドレスの一覧を解析する。
// 単独のIPアドレスは/32（IPv6は/128）として扱う。
func ParseTrustedProxies(s string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if strings.Contains(field, "/") {
			p, err := netip.ParsePrefix(field)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", field, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(field)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", field, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはトークンが1つ補充されるまでの秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, limit int, window time.Duration) {
	retryAfterSec := 1
	if limit > 0 {
		retryAfterSec = int(math.Ceil(window.Seconds() / float64(limit)))
	}
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	WriteErrorResponse(w, http.StatusTooManyRequests, model.NewRateLimitedError())
}
