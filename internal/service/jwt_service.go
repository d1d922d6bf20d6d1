package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims son los claims validados de un access token.
type Claims struct {
	Subject string
}

// JWTService valida access tokens emitidos por el proveedor de identidad
// externo. Este servicio no emite tokens: solo el subject importa aqui,
// como identificador externo opaco del usuario.
type JWTService struct {
	secret []byte
}

func NewJWTService(secret string) *JWTService {
	if secret == "" {
		return nil
	}
	return &JWTService{secret: []byte(secret)}
}

// ParseAccessToken valida firma y expiracion, y devuelve el subject.
func (s *JWTService) ParseAccessToken(token string) (Claims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, errors.New("unexpected claims type")
	}
	sub, err := mapClaims.GetSubject()
	if err != nil || sub == "" {
		return Claims{}, errors.New("token missing subject")
	}
	if exp, err := mapClaims.GetExpirationTime(); err != nil || exp == nil || exp.Before(time.Now()) {
		return Claims{}, errors.New("token expired")
	}
	return Claims{Subject: sub}, nil
}
