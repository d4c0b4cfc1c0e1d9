package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/giladwin/chat/internal/chaterr"
)

type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Authority issues and verifies the signed identity tokens trusted by both
// the HTTP and socket channels. Tokens are stateless: there is no server-side
// session table and no expiry, a token stays valid as long as its signature
// verifies.
type Authority struct {
	secret []byte
}

func NewAuthority(secret string) *Authority {
	return &Authority{secret: []byte(secret)}
}

// Issue produces a signed token binding username.
func (a *Authority) Issue(username string) (string, error) {
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks the token signature and returns the username it binds.
// Malformed tokens, wrong signatures and wrong secrets all surface as the
// same auth failure.
func (a *Authority) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", chaterr.New(chaterr.KindAuth, "got authenticated token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Username == "" {
		return "", chaterr.New(chaterr.KindAuth, "got authenticated token")
	}
	return claims.Username, nil
}
