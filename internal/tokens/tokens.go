package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the shape embedded in both tokens of a pair. Role is checked by
// the authorization guard as-is; a role change in the database takes effect
// only once the holder obtains a fresh token.
type Claims struct {
	UserID    string `json:"id"`
	Role      string `json:"role"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

type Pair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

// Issuer mints and verifies token pairs. Both tokens are signed with the
// same process-wide secret; validity is purely signature + expiry, there is
// no server-side token store and no revocation.
type Issuer struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (i *Issuer) IssuePair(userID, role string) (*Pair, error) {
	now := time.Now().UTC()
	accessExp := now.Add(i.AccessTTL)
	refreshExp := now.Add(i.RefreshTTL)

	access, err := i.sign(userID, role, "access", now, accessExp)
	if err != nil {
		return nil, err
	}
	refresh, err := i.sign(userID, role, "refresh", now, refreshExp)
	if err != nil {
		return nil, err
	}

	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

func (i *Issuer) sign(userID, role, typ string, now, exp time.Time) (string, error) {
	claims := Claims{
		UserID:    userID,
		Role:      role,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(i.Secret)
}

func (i *Issuer) VerifyAccess(raw string) (*Claims, error) {
	return i.parse(raw, "access")
}

func (i *Issuer) VerifyRefresh(raw string) (*Claims, error) {
	return i.parse(raw, "refresh")
}

func (i *Issuer) parse(raw, typ string) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != typ {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
