package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/foodbridge-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var signingMethod = jwt.SigningMethodHS256

// ErrExpired is returned by Parse when only the expiry check failed.
var ErrExpired = errors.New("access token expired")

// Issuer mints and verifies HS256 access tokens.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(cfg config.JWTConfig) (*Issuer, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, fmt.Errorf("jwt issuer is required")
	}
	if cfg.ExpirationMinutes <= 0 {
		return nil, fmt.Errorf("jwt expiration minutes must be positive")
	}
	return &Issuer{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.AccessTTL(),
		now:    time.Now,
	}, nil
}

// TTL is the lifetime stamped on every minted token.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Mint signs a token for subject. A blank SessionID gets a fresh one.
func (i *Issuer) Mint(subject Subject) (string, Subject, error) {
	if subject.UserID == uuid.Nil {
		return "", subject, fmt.Errorf("user id is required")
	}
	if !subject.UserType.IsValid() {
		return "", subject, fmt.Errorf("invalid user type %q", subject.UserType)
	}
	if strings.TrimSpace(subject.SessionID) == "" {
		subject.SessionID = uuid.NewString()
	}

	issuedAt := i.now()
	claims := Claims{
		UserID:   subject.UserID,
		Email:    subject.Email,
		UserType: subject.UserType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   subject.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(i.ttl)),
			ID:        subject.SessionID,
		},
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(i.secret)
	if err != nil {
		return "", subject, fmt.Errorf("signing jwt: %w", err)
	}
	return signed, subject, nil
}

// Parse verifies signature, issuer and expiry.
func (i *Issuer) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(i.now),
	)
	if _, err := parser.ParseWithClaims(token, claims, i.key); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, err
	}
	return claims, nil
}

// ParseAllowExpired verifies signature and issuer only so refresh can
// read the session id of a lapsed token.
func (i *Issuer) ParseAllowExpired(token string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithoutClaimsValidation(),
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(i.issuer),
	)
	if _, err := parser.ParseWithClaims(token, claims, i.key); err != nil {
		return nil, err
	}
	return claims, nil
}

func (i *Issuer) key(token *jwt.Token) (any, error) {
	if token.Method != signingMethod {
		return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
	}
	return i.secret, nil
}
