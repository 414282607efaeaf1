// Package auth выдаёт и проверяет JWT операторов административного API.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTTL: срок жизни токена оператора
	DefaultTTL = 24 * time.Hour
	issuerName = "interactions"
	minSecret  = 32
)

var (
	ErrShortSecret   = errors.New("secret key must be at least 32 bytes")
	ErrInvalidToken  = errors.New("недействительный токен")
	errSigningMethod = errors.New("unexpected signing method")
)

// Claims: полезная нагрузка токена оператора
type Claims struct {
	Operator string `json:"operator"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Issuer подписывает и проверяет токены одним HMAC-ключом
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer создаёт Issuer из base64-ключа.
// Пустой ключ заменяется случайным: токены живут до перезапуска процесса.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if secret == "" {
		secret = GenerateSecureSecret()
	}
	decoded, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, err
	}
	if len(decoded) < minSecret {
		return nil, ErrShortSecret
	}
	return &Issuer{secret: decoded, ttl: ttl, now: time.Now}, nil
}

// Generate выпускает токен для оператора
func (i *Issuer) Generate(operator string, admin bool) (string, error) {
	now := i.now()
	claims := &Claims{
		Operator: operator,
		IsAdmin:  admin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuerName,
			Subject:   operator,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Validate проверяет подпись и срок действия токена
func (i *Issuer) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errSigningMethod
		}
		return i.secret, nil
	}, jwt.WithIssuer(issuerName), jwt.WithTimeFunc(i.now))

	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateSecureSecret создаёт новый случайный ключ в base64
func GenerateSecureSecret() string {
	b := make([]byte, minSecret)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(b)
}
