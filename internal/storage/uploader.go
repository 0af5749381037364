// Package storage はユーザーがアップロードしたファイル（履歴書・アバター・企業ロゴ）を
// 外部オブジェクトストレージへ保存する機能を提供する。
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Kind はアップロードファイルの種別。
type Kind string

const (
	KindResume Kind = "resume"
	KindAvatar Kind = "avatar"
	KindLogo   Kind = "logo"
)

// Uploader は外部ストレージへのアップロードのインターフェース。
// 成功時は公開URLを返す。
type Uploader interface {
	Upload(ctx context.Context, kind Kind, filename string, r io.Reader) (string, error)
}

// CloudinaryUploader はCloudinaryを使用したUploaderの実装。
// 種別ごとのフォルダ（<folder>/<kind>）に保存する。
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryUploader は cloudinary://<key>:<secret>@<cloud> 形式のURLから
// CloudinaryUploaderを生成する。
func NewCloudinaryUploader(cloudinaryURL, folder string) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to configure cloudinary: %w", err)
	}
	return &CloudinaryUploader{cld: cld, folder: folder}, nil
}

// Upload はファイルをアップロードしてsecure_urlを返す。
func (u *CloudinaryUploader) Upload(ctx context.Context, kind Kind, filename string, r io.Reader) (string, error) {
	params := uploader.UploadParams{
		Folder:           path.Join(u.folder, string(kind)),
		ResourceType:     "auto",
		FilenameOverride: strings.TrimSuffix(filename, path.Ext(filename)),
	}

	resp, err := u.cld.Upload.Upload(ctx, r, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", kind, err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("failed to upload %s: %s", kind, resp.Error.Message)
	}
	if resp.SecureURL == "" {
		return "", errors.New("upload response has no secure_url")
	}
	return resp.SecureURL, nil
}

var _ Uploader = (*CloudinaryUploader)(nil)
