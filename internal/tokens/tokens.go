package tokens

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

var ErrWrongType = errors.New("token type mismatch")

type AccessClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Typ   string `json:"typ"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	Typ string `json:"typ"`
	jwt.RegisteredClaims
}

type Signer struct {
	AccessSecret  []byte
	RefreshSecret []byte
}

func (s *Signer) Access(uid, email, name string, exp time.Time) (string, error) {
	claims := AccessClaims{
		Email: email,
		Name:  name,
		Typ:   "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.AccessSecret)
}

// Refresh returns the signed token and its JTI.
func (s *Signer) Refresh(uid string, exp time.Time) (string, string, error) {
	jti := uuid.NewString()
	claims := RefreshClaims{
		Typ: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        jti,
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.RefreshSecret)
	if err != nil {
		return "", "", err
	}
	return tok, jti, nil
}

func AccessClaimsFromToken(tokenStr string, secret []byte) (*AccessClaims, error) {
	var claims AccessClaims
	if err := parse(tokenStr, secret, &claims); err != nil {
		return nil, err
	}
	if claims.Typ != "access" {
		return nil, ErrWrongType
	}
	return &claims, nil
}

func RefreshClaimsFromToken(tokenStr string, secret []byte) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := parse(tokenStr, secret, &claims); err != nil {
		return nil, err
	}
	if claims.Typ != "refresh" {
		return nil, ErrWrongType
	}
	return &claims, nil
}

func parse(tokenStr string, secret []byte, claims jwt.Claims) error {
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil {
		return err
	}
	if !tkn.Valid {
		return jwt.ErrTokenInvalidClaims
	}
	return nil
}

func CreateCookie(name, value, path string, exp time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func DeleteCookie(name, path string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
