package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "codeberg.org/dishdash/server/internal/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const bearerPrefix = "Bearer "

// verifies bearer tokens and produces principals
type Authenticator struct {
	secret []byte
	parser *jwt.Parser
}

// signs tokens for authenticated users
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// creates an authenticator; only HS256 tokens from cfg.Issuer are accepted
func NewAuthenticator(cfg Config) (*Authenticator, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("JWT secret not set")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}

	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	if cfg.Now != nil {
		opts = append(opts, jwt.WithTimeFunc(cfg.Now))
	}

	return &Authenticator{
		secret: []byte(cfg.Secret),
		parser: jwt.NewParser(opts...),
	}, nil
}

// creates an issuer for HS256 tokens
func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("JWT secret not set")
	}

	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("token TTL must be positive")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Issuer{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    now,
	}, nil
}

// Authenticate turns an Authorization header value into a principal.
// Failures are AUTH_001 (missing), AUTH_002 (invalid) or AUTH_003 (expired).
func (a *Authenticator) Authenticate(header string) (*Principal, error) {
	tokenString, ok := bearerToken(header)
	if !ok {
		return nil, apperrors.New(apperrors.CodeAuthMissingToken)
	}

	claims := &Claims{}

	_, err := a.parser.ParseWithClaims(tokenString, claims, a.key)
	if err != nil {
		// signature is checked before claims, so expiry implies an authentic token
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.Wrap(apperrors.CodeAuthExpiredToken, err)
		}

		return nil, apperrors.Wrap(apperrors.CodeAuthInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, apperrors.Wrap(apperrors.CodeAuthInvalidToken, fmt.Errorf("token has no subject"))
	}

	role, ok := ParseRole(claims.Role)
	if !ok {
		return nil, apperrors.Wrap(apperrors.CodeAuthInvalidToken, fmt.Errorf("token has unknown role %q", claims.Role))
	}

	return &Principal{
		SubjectID: claims.Subject,
		Email:     claims.Email,
		Role:      role,
	}, nil
}

func (a *Authenticator) key(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}

	return a.secret, nil
}

// Sign issues a token for p and returns it with its expiry.
func (i *Issuer) Sign(p Principal) (string, time.Time, error) {
	if _, ok := ParseRole(string(p.Role)); !ok {
		return "", time.Time{}, fmt.Errorf("cannot sign token for unknown role %q", p.Role)
	}

	now := i.now()
	expiresAt := now.Add(i.ttl)

	claims := Claims{
		Email: p.Email,
		Role:  string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.SubjectID,
			Issuer:    i.issuer,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// extracts the token from "Bearer <token>"; scheme is case-sensitive, one space
func bearerToken(header string) (string, bool) {
	token, found := strings.CutPrefix(header, bearerPrefix)
	if !found || token == "" {
		return "", false
	}

	if strings.ContainsAny(token, " \t") {
		return "", false
	}

	return token, true
}
