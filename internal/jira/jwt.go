package jira

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// MaxJWTDuration bounds the lifetime of Atlassian Connect request tokens.
const MaxJWTDuration = 10 * time.Minute

// defaultJWTDuration is the lifetime used for each signed request.
const defaultJWTDuration = 3 * time.Minute

// connectClaims are the claims of an Atlassian Connect request token.
type connectClaims struct {
	QSH string `json:"qsh"`
	jwt.RegisteredClaims
}

// JWTSigner signs requests for an Atlassian Connect app using its shared
// secret. Each token is bound to one request by the query string hash.
type JWTSigner struct {
	issuer string
	secret []byte
	now    func() time.Time
}

// NewJWTSigner creates a signer for the app identified by issuer.
func NewJWTSigner(issuer, sharedSecret string) (*JWTSigner, error) {
	if issuer == "" {
		return nil, fmt.Errorf("issuer cannot be empty")
	}
	if sharedSecret == "" {
		return nil, fmt.Errorf("shared secret cannot be empty")
	}

	return &JWTSigner{
		issuer: issuer,
		secret: []byte(sharedSecret),
		now:    time.Now,
	}, nil
}

// Sign returns a token for method and u valid for the default duration.
func (s *JWTSigner) Sign(method string, u *url.URL) (string, error) {
	return s.SignWithDuration(method, u, defaultJWTDuration)
}

// SignWithDuration returns a token for method and u valid for duration.
// Durations above MaxJWTDuration are rejected.
func (s *JWTSigner) SignWithDuration(method string, u *url.URL, duration time.Duration) (string, error) {
	if duration <= 0 {
		return "", fmt.Errorf("duration must be positive")
	}
	if duration > MaxJWTDuration {
		return "", fmt.Errorf("duration %v exceeds maximum allowed %v", duration, MaxJWTDuration)
	}

	now := s.now()

	claims := connectClaims{
		QSH: QueryStringHash(method, u),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// QueryStringHash computes the qsh claim: the hex SHA-256 of
// "METHOD&path&sorted-query".
func QueryStringHash(method string, u *url.URL) string {
	canonical := strings.ToUpper(method) + "&" + canonicalPath(u.EscapedPath()) + "&" + canonicalQuery(u.Query())
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

func canonicalPath(p string) string {
	if p == "" {
		return "/"
	}
	p = strings.ReplaceAll(p, "&", "%26")
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// canonicalQuery sorts parameters by key, joins repeated values with commas
// and drops the jwt parameter itself.
func canonicalQuery(q url.Values) string {
	keys := make([]string, 0, len(q))
	for k := range q {
		if k == "jwt" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		values := append([]string(nil), q[k]...)
		sort.Strings(values)
		encoded := make([]string, len(values))
		for i, v := range values {
			encoded[i] = percentEncode(v)
		}
		parts = append(parts, percentEncode(k)+"="+strings.Join(encoded, ","))
	}

	return strings.Join(parts, "&")
}

// percentEncode applies RFC 3986 encoding as Atlassian expects it.
func percentEncode(s string) string {
	e := url.QueryEscape(s)
	e = strings.ReplaceAll(e, "+", "%20")
	e = strings.ReplaceAll(e, "*", "%2A")
	e = strings.ReplaceAll(e, "%7E", "~")
	return e
}
