package auth

import (
	"errors"
	"fmt"
	"time"

	"chronoshift/server/domain"

	"github.com/golang-jwt/jwt/v5"
)

const issuerName = "chronoshift"

var (
	ErrEmptySecret   = errors.New("jwt secret is empty")
	ErrInvalidToken  = errors.New("invalid token")
	ErrNotAdminToken = errors.New("token does not grant admin")
)

// Claims はセッショントークンのクレームです。Subject はセッションIDです。
type Claims struct {
	Admin bool `json:"adm,omitempty"`
	jwt.RegisteredClaims
}

// Issuer は HS256 のセッショントークンを発行・検証します。
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue はセッションID sessionID を主体とするトークンを発行します。
func (i *Issuer) Issue(sessionID domain.SessionID, admin bool) (string, error) {
	now := i.now()
	claims := Claims{
		Admin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   sessionID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify はトークンを検証し、クレームとセッションIDを返します。
func (i *Issuer) Verify(token string) (*Claims, domain.SessionID, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuerName),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, domain.SessionID{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	sessionID, err := domain.ParseSessionID(claims.Subject)
	if err != nil {
		return nil, domain.SessionID{}, fmt.Errorf("%w: subject: %w", ErrInvalidToken, err)
	}
	return &claims, sessionID, nil
}

// VerifyAdmin は管理者権限を持つトークンだけを受け付けます。
func (i *Issuer) VerifyAdmin(token string) error {
	claims, _, err := i.Verify(token)
	if err != nil {
		return err
	}
	if !claims.Admin {
		return ErrNotAdminToken
	}
	return nil
}
