package jwt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gastbook/config"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// JWTService issues and validates HS256 access tokens.
// Subject carries the user id; Data holds non-sensitive extras.
type JWTService struct {
	secretKey   []byte
	issuer      string
	expireAfter time.Duration
	accountOK   AccountCheck
}

// AccountCheck reports an error when the token's user can no longer act,
// for example after the account was deleted.
type AccountCheck func(ctx context.Context, userID uint) error

// CustomClaims token payload
type CustomClaims struct {
	Data map[string]interface{} `json:"data,omitempty"`
	jwtv5.RegisteredClaims
}

// UserID parses the subject. Zero means the subject is not a user id.
func (c *CustomClaims) UserID() uint {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

// Username from Data, empty if absent.
func (c *CustomClaims) Username() string {
	if c.Data == nil {
		return ""
	}
	name, _ := c.Data["username"].(string)
	return name
}

func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secretKey:   []byte(cfg.Secret),
		issuer:      cfg.Issuer,
		expireAfter: cfg.ExpireTime,
	}
}

// SetAccountCheck makes authenticated requests also require a live account.
func (s *JWTService) SetAccountCheck(check AccountCheck) {
	s.accountOK = check
}

// Authenticate validates the token and then the account behind it.
func (s *JWTService) Authenticate(ctx context.Context, tokenString string) (*CustomClaims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if s.accountOK != nil {
		if err := s.accountOK(ctx, claims.UserID()); err != nil {
			return nil, fmt.Errorf("account check failed: %w", err)
		}
	}
	return claims, nil
}

// GenerateToken signs an access token for userID.
func (s *JWTService) GenerateToken(userID uint, username string) (string, error) {
	if userID == 0 {
		return "", errors.New("userID is required")
	}

	now := time.Now()
	claims := &CustomClaims{
		Data: map[string]interface{}{"username": username},
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwtv5.NewNumericDate(now),
			NotBefore: jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(s.expireAfter)),
		},
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token failed: %w", err)
	}
	return signed, nil
}

// ValidateToken checks signature, algorithm, issuer and expiry.
func (s *JWTService) ValidateToken(tokenString string) (*CustomClaims, error) {
	if tokenString == "" {
		return nil, errors.New("token is empty")
	}
	claims := &CustomClaims{}
	parsedToken, err := jwtv5.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwtv5.Token) (interface{}, error) {
			if token.Method != jwtv5.SigningMethodHS256 {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secretKey, nil
		},
		jwtv5.WithIssuer(s.issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token failed: %w", err)
	}
	if !parsedToken.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID() == 0 {
		return nil, errors.New("token subject is not a user id")
	}
	return claims, nil
}
