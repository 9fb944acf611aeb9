package auth

import (
	"errors"
	"os"

	"pairserver/models"

	jwt "github.com/golang-jwt/jwt"
)

// 署名鍵は環境変数で設定します。未設定のままトークン検証に入った場合は
// ErrNoSigningKeyを返し、呼び出し側がサーバー側エラーとして扱います。
var JwtKey []byte

var ErrNoSigningKey = errors.New("jwt signing key is not configured")

// InitJwtKey は環境変数JWT_SECRETから署名鍵を読み込みます。
func InitJwtKey() error {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return ErrNoSigningKey
	}
	JwtKey = []byte(secret)
	return nil
}

// ParseToken はトークンを検証し、含まれるクレームを返します。
func ParseToken(tokenString string) (*models.MyClaims, error) {
	if len(JwtKey) == 0 {
		return nil, ErrNoSigningKey
	}

	claims := &models.MyClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return JwtKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

func IsValidToken(tokenString string) (bool, error) {
	_, err := ParseToken(tokenString)
	if err != nil {
		return false, err
	}
	return true, nil
}
