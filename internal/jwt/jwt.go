package jwt

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	CookieName = "JWT"
	issuer     = "chatapp-servers"

	sessionLifetime  = 24 * time.Hour
	rememberLifetime = 4 * 7 * 24 * time.Hour
)

type UserToken struct {
	UserID   int64 `json:"userID,string"`
	Remember bool  `json:"rem"`
	jwt.RegisteredClaims
}

var jwtSecret []byte
var secureCookies bool

func Setup(_key string, _secureCookies bool) {
	jwtSecret = []byte(_key)
	secureCookies = _secureCookies
}

func newCookie(value string) http.Cookie {
	return http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// CreateToken signs a token for userID. Remembered tokens get a persistent cookie,
// the others a session cookie that the browser drops on close.
func CreateToken(remember bool, userID int64) (http.Cookie, error) {
	lifetime := sessionLifetime
	if remember {
		lifetime = rememberLifetime
	}

	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(lifetime)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, UserToken{
		UserID:   userID,
		Remember: remember,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}).SignedString(jwtSecret)
	if err != nil {
		return http.Cookie{}, err
	}

	cookie := newCookie(signed)
	if remember {
		cookie.Expires = expiresAt
	}
	return cookie, nil
}

// ExpiredCookie makes the client drop its JWT.
func ExpiredCookie() *http.Cookie {
	cookie := newCookie("")
	cookie.Expires = time.Unix(0, 0)
	cookie.MaxAge = -1
	return &cookie
}

func VerifyToken(tokenString string) (UserToken, error) {
	var userToken UserToken

	token, err := jwt.ParseWithClaims(tokenString, &userToken, func(*jwt.Token) (any, error) {
		return jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return UserToken{}, err
	}
	if !token.Valid || userToken.UserID == 0 {
		return UserToken{}, errors.New("invalid token")
	}
	return userToken, nil
}
