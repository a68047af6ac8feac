package handlers

import (
	"chatapp-servers/internal/jwt"
	"chatapp-servers/internal/models"
	"chatapp-servers/internal/snowflake"
	"chatapp-servers/internal/store"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

func Login(w http.ResponseWriter, r *http.Request) {
	type Login struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var login Login
	err := json.NewDecoder(r.Body).Decode(&login)
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	user, err := st.GetUserByEmail(r.Context(), login.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			sugar.Debug(err)
			http.Error(w, "", http.StatusUnauthorized)
		} else {
			sugar.Error(err)
			http.Error(w, "", http.StatusInternalServerError)
		}
		return
	}

	err = bcrypt.CompareHashAndPassword(user.Password, []byte(login.Password))
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "", http.StatusUnauthorized)
		return
	}

	cookie, err := jwt.CreateToken(r.URL.Query().Get("rememberMe") == "true", user.ID)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &cookie)
}

func Register(w http.ResponseWriter, r *http.Request) {
	type Registration struct {
		Email           string `json:"email" validate:"required,email,max=64"`
		UserName        string `json:"userName" validate:"required,alphanum,max=32"`
		DisplayName     string `json:"displayName" validate:"max=64"`
		Password        string `json:"password" validate:"password"`
		ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
	}

	var registration Registration
	err := json.NewDecoder(r.Body).Decode(&registration)
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	if !validateRequest(w, registration) {
		return
	}

	passwordBytes, err := bcrypt.GenerateFromPassword([]byte(registration.Password), 12)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	displayName := registration.DisplayName
	if displayName == "" {
		displayName = registration.UserName
	}

	user := models.User{
		Email:       registration.Email,
		UserName:    registration.UserName,
		DisplayName: displayName,
		Password:    passwordBytes,
	}

	err = st.CreateUser(r.Context(), &user)
	if err != nil {
		handleError(w, err)
		return
	}

	sugar.Infof("Registered user ID [%d]", user.ID)
	writeJSON(w, user)
}

func NewSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := snowflake.Generate()
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	sessionCookie := http.Cookie{
		Name:     "session",
		Value:    fmt.Sprint(sessionID),
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, &sessionCookie)
}
