package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

const (
	// DefaultMaxAttempts はアップロードの既定の最大試行回数。
	DefaultMaxAttempts = 3
	// initialBackoff は指数バックオフの初回遅延。
	initialBackoff = 200 * time.Millisecond
	// maxBackoff は指数バックオフの最大遅延。
	maxBackoff = 2 * time.Second
)

// CalculateBackoff は失敗済みの試行回数に基づいて指数バックオフ遅延を計算する。
// 初回200ms、2倍ずつ増加、最大2秒。
func CalculateBackoff(failedAttempts int) time.Duration {
	delay := initialBackoff
	for i := 0; i < failedAttempts; i++ {
		delay *= 2
		if delay > maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// RetryingUploader は任意のUploaderを指数バックオフ付きの再試行でラップする。
type RetryingUploader struct {
	next        Uploader
	maxAttempts int
	logger      *slog.Logger
	// backoff は待機時間の計算関数。テストで差し替える。
	backoff func(failedAttempts int) time.Duration
}

// NewRetryingUploader はRetryingUploaderを生成する。
// maxAttemptsが1未満の場合はDefaultMaxAttemptsを使用する。
func NewRetryingUploader(next Uploader, maxAttempts int, logger *slog.Logger) *RetryingUploader {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &RetryingUploader{
		next:        next,
		maxAttempts: maxAttempts,
		logger:      logger,
		backoff:     CalculateBackoff,
	}
}

// Upload はアップロードを最大maxAttempts回試行する。
// 再試行のたびに読み込み位置を先頭に戻すため、io.Seekerでない入力は一度メモリに読み込む。
// コンテキストがキャンセルされた場合は待機を中断して即座に返す。
func (u *RetryingUploader) Upload(ctx context.Context, kind Kind, filename string, r io.Reader) (string, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("failed to buffer upload: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	var lastErr error
	for attempt := 0; attempt < u.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := u.backoff(attempt - 1)
			u.logger.Warn("アップロードを再試行します",
				slog.String("kind", string(kind)),
				slog.Int("attempt", attempt+1),
				slog.Duration("delay", delay),
				slog.String("error", lastErr.Error()),
			)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return "", ctx.Err()
			case <-timer.C:
			}

			if _, err := rs.Seek(0, io.SeekStart); err != nil {
				return "", fmt.Errorf("failed to rewind upload: %w", err)
			}
		}

		url, err := u.next.Upload(ctx, kind, filename, rs)
		if err == nil {
			return url, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("upload failed after %d attempts: %w", u.maxAttempts, lastErr)
}

var _ Uploader = (*RetryingUploader)(nil)
