package handlers

import (
	"chatapp-servers/internal/hub"
	"chatapp-servers/internal/jwt"
	"chatapp-servers/internal/keyValue"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

type SessionIDKeyType struct{}
type UserIDKeyType struct{}

func userIDFrom(r *http.Request) int64 {
	return r.Context().Value(UserIDKeyType{}).(int64)
}

// sessionIDFrom returns 0 when the request has no connected websocket session.
func sessionIDFrom(r *http.Request) int64 {
	sessionID, _ := r.Context().Value(SessionIDKeyType{}).(int64)
	return sessionID
}

func readSessionCookie(r *http.Request) (int64, error) {
	sessionCookie, err := r.Cookie("session")
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(sessionCookie.Value, 10, 64)
}

// WithSession passes the session ID on when the client has a connected websocket,
// so fetch handlers can subscribe it to updates. Requests without one still go through.
func WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := readSessionCookie(r)
		if err != nil {
			if !errors.Is(err, http.ErrNoCookie) {
				sugar.Debug(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		client, exists := hub.GetClient(sessionID)
		if !exists || client.UserID != userIDFrom(r) {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), SessionIDKeyType{}, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UserVerifier(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jwtCookie, err := r.Cookie(jwt.CookieName)
		if err != nil {
			sugar.Debug(err)
			switch {
			case errors.Is(err, http.ErrNoCookie):
				http.Error(w, "No jwt cookie was provided", http.StatusUnauthorized)
			default:
				http.Error(w, "Couldn't read jwt cookie", http.StatusInternalServerError)
			}
			return
		}

		userToken, err := jwt.VerifyToken(jwtCookie.Value)
		if err != nil {
			sugar.Debug(err)
			http.Error(w, "Couldn't verify JWT", http.StatusUnauthorized)
			return
		}

		// check if user exists
		key := fmt.Sprintf("user_exists:%d", userToken.UserID)

		userFound := false

		value, err := keyValue.Get(key)
		if err != nil {
			sugar.Error(err)
			http.Error(w, "", http.StatusInternalServerError)
			return
		}

		if value == "" { // user isn't cached
			userFound, err = st.UserExists(r.Context(), userToken.UserID)
			if err != nil {
				sugar.Error(err)
				http.Error(w, "", http.StatusInternalServerError)
				return
			}
			if userFound {
				err = keyValue.Set(key, "y", 15*time.Minute)
				if err != nil {
					sugar.Error(err)
					http.Error(w, "", http.StatusInternalServerError)
					return
				}
				sugar.Debugf("User ID %d was found in database and was cached", userToken.UserID)
			} else {
				sugar.Debugf("User ID %d was not found in database", userToken.UserID)
			}
		} else {
			userFound = true
		}

		// the account was deleted but the client kept its token
		if !userFound {
			http.SetCookie(w, jwt.ExpiredCookie())
			http.Error(w, "", http.StatusUnauthorized)
			return
		}

		// renew JWT and cookie
		timeSinceLast := time.Now().UTC().Sub(userToken.IssuedAt.Time)

		if timeSinceLast >= 15*time.Minute {
			updatedCookie, err := jwt.CreateToken(userToken.Remember, userToken.UserID)
			if err != nil {
				sugar.Error(err)
				http.Error(w, "Couldn't renew cookie", http.StatusInternalServerError)
				return
			}

			http.SetCookie(w, &updatedCookie)
		}

		// this passes the authenticated user's ID to next handler
		ctx := context.WithValue(r.Context(), UserIDKeyType{}, userToken.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminVerifier must run after UserVerifier.
func AdminVerifier(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFrom(r)
		if !cfg.IsAdmin(userID) {
			sugar.Warnf("User ID [%d] tried to use an admin endpoint", userID)
			http.Error(w, "Admins only", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
