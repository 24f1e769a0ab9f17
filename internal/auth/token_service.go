package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jamboshop/jamboshop/internal/models"
)

// Token lifetimes. Access and refresh share a default; deployments shorten
// the access window via configuration.
const (
	DefaultAccessTokenTTL  = 24 * time.Hour
	DefaultRefreshTokenTTL = 24 * time.Hour
)

// Token type discriminators carried in the typ claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenConfig bundles the configuration required to build a TokenService.
type TokenConfig struct {
	Secret          string
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Clock           func() time.Time
}

// Claims represents the custom claims embedded in issued JWTs. Profile
// fields ride along so clients can render the signed-in user without an
// extra round trip.
type Claims struct {
	UserID      string `json:"uid"`
	Username    string `json:"username,omitempty"`
	Email       string `json:"email,omitempty"`
	FullName    string `json:"full_name,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	TokenType   string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair carries a freshly minted access and refresh token.
type TokenPair struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
}

// TokenService issues and validates the access and refresh JSON Web Tokens
// backing every authenticated request.
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService constructs a TokenService from the supplied configuration.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token service: secret must be provided")
	}

	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &TokenService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        now,
	}, nil
}

// IssuePair mints an access and refresh token for the user.
func (s *TokenService) IssuePair(user *models.User) (*TokenPair, error) {
	if user == nil || user.ID == "" {
		return nil, errors.New("token service: user is required")
	}

	access, err := s.issue(user, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issue(user, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ValidateAccess parses a token string and requires the access type.
func (s *TokenService) ValidateAccess(tokenString string) (*Claims, error) {
	return s.validate(tokenString, TokenTypeAccess)
}

// ValidateRefresh parses a token string and requires the refresh type, so a
// stolen access token can never be traded for a new pair.
func (s *TokenService) ValidateRefresh(tokenString string) (*Claims, error) {
	return s.validate(tokenString, TokenTypeRefresh)
}

func (s *TokenService) issue(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()

	claims := &Claims{
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.EmailValue(),
		FullName:    user.FullName(),
		PhoneNumber: user.PhoneNumber,
		TokenType:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("token service: sign %s token: %w", tokenType, err)
	}

	return signed, nil
}

func (s *TokenService) validate(tokenString, wantType string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("token service: token string is empty")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token service: parse token: %w", err)
	}

	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, errors.New("token service: invalid issuer")
	}
	if claims.UserID == "" {
		return nil, errors.New("token service: missing user id claim")
	}
	if claims.TokenType != wantType {
		return nil, fmt.Errorf("token service: token is not a %s token", wantType)
	}

	return &claims, nil
}
