package handlers

import (
	"chatapp-servers/internal/hub"
	"net/http"
)

func HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	sessionID, err := readSessionCookie(r)
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "Missing session cookie", http.StatusBadRequest)
		return
	}

	hub.HandleClient(w, r, userID, sessionID)
}
