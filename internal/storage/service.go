package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/hitoshi/jobboard/internal/metrics"
	"github.com/hitoshi/jobboard/internal/model"
)

// DefaultMaxBytes はアップロードファイルサイズの既定上限（5MiB）。
const DefaultMaxBytes int64 = 5 << 20

// allowedTypes は種別ごとに許可するMIMEタイプ。
// 判定は拡張子やContent-Typeヘッダではなくファイル内容から行う。
var allowedTypes = map[Kind][]string{
	KindResume: {"application/pdf"},
	KindAvatar: {"image/jpeg", "image/png", "image/webp", "image/gif"},
	KindLogo:   {"image/jpeg", "image/png", "image/webp", "image/gif"},
}

// File はアップロードされたファイル。
type File struct {
	Filename string
	Content  io.Reader
}

// FileStore はファイル保存のインターフェース。サービス層から利用する。
type FileStore interface {
	Store(ctx context.Context, kind Kind, file File) (string, error)
}

// Service はファイルの検証とアップロードを行うFileStoreの実装。
type Service struct {
	uploader Uploader
	maxBytes int64
	metrics  metrics.MetricsCollector
	logger   *slog.Logger
}

// NewService はServiceを生成する。maxBytesが0以下の場合はDefaultMaxBytesを使用する。
func NewService(uploader Uploader, maxBytes int64, collector metrics.MetricsCollector, logger *slog.Logger) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Service{
		uploader: uploader,
		maxBytes: maxBytes,
		metrics:  collector,
		logger:   logger,
	}
}

// ValidateUpload はファイル内容を検査し、種別に適合しない場合はINVALID_UPLOADを返す。
// 空ファイル、サイズ超過、許可外のMIMEタイプを拒否する。
func ValidateUpload(kind Kind, data []byte, maxBytes int64) *model.APIError {
	allowed, ok := allowedTypes[kind]
	if !ok {
		return model.NewInvalidUploadError("未対応のファイル種別です。")
	}
	if len(data) == 0 {
		return model.NewInvalidUploadError("ファイルが空です。")
	}
	if int64(len(data)) > maxBytes {
		return model.NewInvalidUploadError(fmt.Sprintf("ファイルサイズは%dMB以下にしてください。", maxBytes>>20))
	}

	detected := mimetype.Detect(data)
	for _, m := range allowed {
		if detected.Is(m) {
			return nil
		}
	}
	if kind == KindResume {
		return model.NewInvalidUploadError("履歴書はPDF形式でアップロードしてください。")
	}
	return model.NewInvalidUploadError("画像はJPEG/PNG/WebP/GIF形式でアップロードしてください。")
}

// Store はファイルを検証して外部ストレージに保存し、公開URLを返す。
// 検証失敗はINVALID_UPLOAD、ストレージ側の失敗はUPLOAD_FAILEDを返す。
func (s *Service) Store(ctx context.Context, kind Kind, file File) (string, error) {
	if file.Content == nil {
		s.metrics.RecordUpload(string(kind), metrics.UploadResultRejected, 0)
		return "", model.NewInvalidUploadError("ファイルが指定されていません。")
	}

	// 上限+1バイトまで読み、超過を検出する
	data, err := io.ReadAll(io.LimitReader(file.Content, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	if apiErr := ValidateUpload(kind, data, s.maxBytes); apiErr != nil {
		s.metrics.RecordUpload(string(kind), metrics.UploadResultRejected, 0)
		return "", apiErr
	}

	start := time.Now()
	url, err := s.uploader.Upload(ctx, kind, file.Filename, bytes.NewReader(data))
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordUpload(string(kind), metrics.UploadResultFailed, duration)
		s.logger.Error("ファイルのアップロードに失敗しました",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		return "", model.NewUploadFailedError()
	}

	s.metrics.RecordUpload(string(kind), metrics.UploadResultSuccess, duration)
	s.logger.Info("ファイルをアップロードしました",
		slog.String("kind", string(kind)),
		slog.Int("bytes", len(data)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)
	return url, nil
}

var _ FileStore = (*Service)(nil)
