package utils // package utils provides helper functions for token creation and verification

import (
    "crypto/sha256" // SHA-256 hashing for refresh tokens at rest
    "encoding/hex"  // hex encoding of digests and opaque tokens
    "errors"        // sentinel errors for token verification
    "strings"       // assembling the QR session token
    "time"          // expiry computation

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
    "github.com/google/uuid"       // source of opaque token material
)

// Token verification failures. ErrTokenExpired is reported both when
// the JWT library rejects the exp claim and when the manual
// wall-clock check fails, so callers see a single error either way.
var (
    ErrTokenExpired = errors.New("token expired")
    ErrTokenInvalid = errors.New("token invalid")
)

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are short-lived, stateless and carried in the
// Authorization header; they cannot be revoked before their expiry.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// Claims is the decoded content of a verified access token.
type Claims struct {
    UserID uint64   // the "sub" claim
    Roles  []string // the "roles" claim, role names at issuance time
}

// RefreshToken represents a long-lived opaque token used to obtain new
// access tokens. The Raw field is returned to the client; in the
// database only a SHA-256 hash of it is stored.
type RefreshToken struct {
    Raw string    // raw token string returned to the client
    Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user. The JWT
// carries the subject (sub), the user's role names at issuance time
// (roles), expiration (exp) and issued at (iat). The ttl parameter
// lets the telegram flow extend the lifetime far beyond the default.
func NewAccessToken(secret string, userID uint64, roles []string, ttl time.Duration) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := jwt.MapClaims{
        "sub":   userID,
        "roles": roles,
        "exp":   exp.Unix(),
        "iat":   now.Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// VerifyAccessToken validates the signature and expiry of a token and
// returns its claims. Expired tokens yield ErrTokenExpired; any other
// decode or signature failure yields ErrTokenInvalid. The expiry is
// re-checked against the wall clock after decoding so a token without
// library-side validation still cannot outlive its exp claim.
func VerifyAccessToken(secret, raw string) (Claims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrTokenInvalid
        }
        return []byte(secret), nil
    })
    if err != nil {
        if errors.Is(err, jwt.ErrTokenExpired) {
            return Claims{}, ErrTokenExpired
        }
        return Claims{}, ErrTokenInvalid
    }
    if !tok.Valid {
        return Claims{}, ErrTokenInvalid
    }
    mc, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return Claims{}, ErrTokenInvalid
    }

    exp, err := mc.GetExpirationTime()
    if err != nil || exp == nil {
        return Claims{}, ErrTokenInvalid
    }
    if time.Now().UTC().After(exp.Time) {
        return Claims{}, ErrTokenExpired
    }

    sub, ok := mc["sub"].(float64)
    if !ok || sub < 0 {
        return Claims{}, ErrTokenInvalid
    }
    var roles []string
    if raw, ok := mc["roles"].([]interface{}); ok {
        for _, r := range raw {
            if s, ok := r.(string); ok {
                roles = append(roles, s)
            }
        }
    }
    return Claims{UserID: uint64(sub), Roles: roles}, nil
}

// NewRefreshToken returns an opaque UUID-derived token and its
// expiration time. The ttlDays parameter controls how many days the
// refresh token stays exchangeable.
func NewRefreshToken(ttlDays int) RefreshToken {
    return RefreshToken{
        Raw: uuid.NewString(),
        Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
    }
}

// HashRefreshRaw returns the SHA-256 hash of a raw refresh token as a
// hex string. Storing only the hash prevents attackers from using
// stolen database rows to refresh sessions.
func HashRefreshRaw(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

// qrTokenLength is the length of the opaque value embedded in a QR
// session link.
const qrTokenLength = 128

// NewQRToken builds a 128-character opaque session token by
// concatenating UUID hex until the target length is reached.
func NewQRToken() string {
    var b strings.Builder
    for b.Len() < qrTokenLength {
        b.WriteString(strings.ReplaceAll(uuid.NewString(), "-", ""))
    }
    return b.String()[:qrTokenLength]
}
