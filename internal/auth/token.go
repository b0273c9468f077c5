package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tmplkit/tmplkit/internal/model"
)

// bearerPrefix is prepended to issued tokens and required on inbound ones.
const bearerPrefix = "Bearer "

var (
	// ErrMalformedToken indicates the Authorization value is not a
	// well-formed bearer JWT.
	ErrMalformedToken = errors.New("malformed authorization token")
	// ErrInvalidSignature indicates the signature or signing algorithm
	// does not match the configured secret and algorithm.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrTokenExpired indicates the token carried an expiry that passed.
	ErrTokenExpired = errors.New("authorization token expired")
)

// Claims is the identity payload embedded in session tokens.
// It carries a subset of the user record; the password hash is never
// included.
type Claims struct {
	Email       string            `json:"email"`
	FirstName   string            `json:"first_name"`
	LastName    string            `json:"last_name"`
	Permissions model.Permissions `json:"permissions"`
	jwt.RegisteredClaims
}

// Codec issues and verifies signed bearer tokens.
// Tokens are stateless: validity is purely a function of signature and,
// when a TTL is configured, expiry.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

// NewCodec builds a Codec for the given shared secret and HMAC algorithm
// name (HS256, HS384 or HS512). A zero ttl issues tokens without expiry;
// expiry validation activates automatically once a ttl is set.
func NewCodec(secret, algorithm string, ttl time.Duration) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}

	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q: only HMAC methods are configured with a shared secret", algorithm)
	}

	return &Codec{
		secret: []byte(secret),
		method: method,
		ttl:    ttl,
	}, nil
}

// Issue signs a token for the given user and returns it in
// "Bearer <token>" form, ready for the AuthorizationToken field.
func (c *Codec) Issue(user *model.User) (string, error) {
	claims := Claims{
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Permissions: user.Permissions,
	}

	if c.ttl != 0 {
		now := time.Now()
		claims.IssuedAt = jwt.NewNumericDate(now)
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return bearerPrefix + signed, nil
}

// Verify checks an Authorization header value and returns the embedded
// claims. The "Bearer " prefix is required; the signature and the signing
// algorithm must match the codec's configuration exactly.
func (c *Codec) Verify(header string) (*Claims, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return nil, ErrMalformedToken
	}
	raw := strings.TrimPrefix(header, bearerPrefix)
	if raw == "" {
		return nil, ErrMalformedToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{c.method.Alg()}),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, fmt.Errorf("parse token: %w", err)
		}
	}

	if !token.Valid {
		return nil, ErrInvalidSignature
	}

	return claims, nil
}
