package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/jobboard/internal/model"
)

// MinTokenSecretLength はトークン署名鍵の最小バイト数。
const MinTokenSecretLength = 32

// ErrInvalidToken はトークンの形式・署名・有効期限のいずれかが不正であることを表す。
var ErrInvalidToken = errors.New("invalid token")

// TokenClaims はX-Auth-Tokenに格納するクレーム。
// sub がプリンシパルID、jti がサーバー側セッションIDに対応する。
type TokenClaims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer は認証トークンの発行と検証のインターフェースを定義する。
type TokenIssuer interface {
	Issue(identity model.Identity, sessionID string, expiresAt time.Time) (string, error)
	// Parse はトークンを検証し、埋め込まれたIdentity（SessionID付き）を返す。
	// 検証に失敗した場合はErrInvalidTokenをラップしたエラーを返す。
	Parse(token string) (model.Identity, error)
}

// JWTIssuer はHS256署名のJWTによるTokenIssuerの実装。
type JWTIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewJWTIssuer はJWTIssuerを生成する。
// secretがMinTokenSecretLength未満の場合はエラーを返す。
func NewJWTIssuer(secret string) (*JWTIssuer, error) {
	if len(secret) < MinTokenSecretLength {
		return nil, fmt.Errorf("token secret must be at least %d bytes", MinTokenSecretLength)
	}
	return &JWTIssuer{secret: []byte(secret), now: time.Now}, nil
}

// Issue はIdentityとセッションIDからトークンを発行する。
func (i *JWTIssuer) Issue(identity model.Identity, sessionID string, expiresAt time.Time) (string, error) {
	claims := TokenClaims{
		Role: identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(i.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse はトークンを検証してIdentityを返す。
// HS256以外の署名方式、有効期限なし、期限切れ、不明なロールは全て不正として扱う。
func (i *JWTIssuer) Parse(token string) (model.Identity, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.ID == "" || !claims.Role.Valid() {
		return model.Identity{}, fmt.Errorf("%w: missing claims", ErrInvalidToken)
	}

	return model.Identity{
		ID:        claims.Subject,
		Role:      claims.Role,
		SessionID: claims.ID,
	}, nil
}

var _ TokenIssuer = (*JWTIssuer)(nil)
