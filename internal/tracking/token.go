package tracking

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that fail signature or claim checks.
var ErrInvalidToken = errors.New("invalid tracking token")

// Signer mints and verifies the signed tokens embedded in campaign open
// pixels and click links. Signing keeps external callers from forging
// open/click events for arbitrary campaign records.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

type claims struct {
	CampaignID int64 `json:"cid"`
	jwt.RegisteredClaims
}

// Token returns a signed token identifying the campaign record. Tokens do
// not expire: opens and clicks can arrive long after the send.
func (s *Signer) Token(campaignID int64) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		CampaignID: campaignID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now().UTC()),
		},
	})
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign tracking token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns the campaign record id it identifies.
func (s *Signer) Parse(token string) (int64, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}
	if c.CampaignID <= 0 {
		return 0, ErrInvalidToken
	}
	return c.CampaignID, nil
}
