package myjwt

import (
	"errors"
	"time"

	"DocMCP/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptyKey 未配置签名密钥
var ErrEmptyKey = errors.New("jwt key is empty")

type CustomClaims struct {
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// Signer HS256 签发与校验
type Signer struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner issuer 为空时使用应用名
func NewSigner(conf config.JwtConfig, appName string) *Signer {
	expireHours := conf.ExpireHours
	if expireHours <= 0 {
		expireHours = 24
	}
	issuer := conf.Issuer
	if issuer == "" {
		issuer = appName
	}
	return &Signer{
		key:    []byte(conf.Key),
		issuer: issuer,
		ttl:    time.Duration(expireHours) * time.Hour,
		now:    time.Now,
	}
}

// Enabled 配置了密钥
func (s *Signer) Enabled() bool {
	return len(s.key) > 0
}

func (s *Signer) GenerateToken(subject, scope string) (string, error) {
	if !s.Enabled() {
		return "", ErrEmptyKey
	}

	now := s.now()
	claims := CustomClaims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

func (s *Signer) ParseToken(tokenString string) (*CustomClaims, error) {
	if !s.Enabled() {
		return nil, ErrEmptyKey
	}

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.key, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
