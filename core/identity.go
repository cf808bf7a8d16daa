package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Identity is the verified result of a credential check. It is built once
// per request and passed explicitly to every decision point; nothing in
// this package keeps an ambient "current user".
type Identity struct {
	SubjectID uint
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

const tokenTTL = 24 * time.Hour

// Verifier issues and verifies the signed bearer tokens that carry an
// Identity across requests.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Issue signs a token for the given subject and role.
func (v *Verifier) Issue(userID uint, role Role) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role.String(),
		"iat":     now.Unix(),
		"exp":     now.Add(tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// Verify validates a bearer credential and extracts the Identity.
// An absent credential fails with ErrMissingCredential; anything presented
// but unverifiable (bad signature, expired, junk claims) fails with
// ErrInvalidCredential so callers can log the two cases apart.
func (v *Verifier) Verify(credential string) (Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return Identity{}, ErrMissingCredential
	}
	// Tolerate the conventional "Bearer <token>" header form.
	credential = strings.TrimPrefix(credential, "Bearer ")

	token, err := jwt.Parse(credential, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("%w: bad claims", ErrInvalidCredential)
	}

	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidCredential)
	}

	roleClaim, _ := claims["role"].(string)
	role, err := ParseRole(roleClaim)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	id := Identity{
		SubjectID: uint(userID),
		Role:      role,
	}
	if iat, ok := claims["iat"].(float64); ok {
		id.IssuedAt = time.Unix(int64(iat), 0)
	}
	if exp, ok := claims["exp"].(float64); ok {
		id.ExpiresAt = time.Unix(int64(exp), 0)
	}

	return id, nil
}
