package models

import (
	"github.com/golang-jwt/jwt"
)

// MyClaims はJWTクレームの構造体定義です。トークンは外部のIDプロバイダが
// 発行し、本サーバーは検証のみを行います。
type MyClaims struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	jwt.StandardClaims
}
