package gateway

import (
	"github.com/golang-jwt/jwt/v5"

	gigmee_errors "github.com/ensp1re/Gigmee/pkg/errors"
)

// Authorizer verifies the session token presented on socket upgrade. An empty
// secret disables verification, which the development compose setup relies on.
type Authorizer struct {
	secret []byte
}

func NewAuthorizer(secret string) *Authorizer {
	return &Authorizer{secret: []byte(secret)}
}

// VerifyToken parses the token and returns the username claim.
func (a *Authorizer) VerifyToken(tokenString string) (string, error) {
	if len(a.secret) == 0 {
		return "", nil
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, gigmee_errors.ErrUnauthorized
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return "", gigmee_errors.ErrUnauthorized
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", gigmee_errors.ErrUnauthorized
	}
	username, _ := claims["username"].(string)
	return username, nil
}
