package handlers

import (
	"chatapp-servers/internal/hub"
	"chatapp-servers/internal/jwt"
	"chatapp-servers/internal/keyValue"
	"fmt"
	"net/http"
	"strconv"
)

func GetUserInfo(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	paramUserID := r.URL.Query().Get("userID")
	if paramUserID == "" {
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	var requestedUserID int64

	if paramUserID == "self" {
		requestedUserID = userID
	} else {
		var err error
		requestedUserID, err = strconv.ParseInt(paramUserID, 10, 64)
		if err != nil {
			http.Error(w, "", http.StatusBadRequest)
			return
		}
	}

	user, err := st.GetUser(r.Context(), requestedUserID)
	if err != nil {
		handleError(w, err)
		return
	}

	// only the user themselves sees their email
	if requestedUserID != userID {
		user.Email = ""
	}

	writeJSON(w, user)
}

func DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	serverIDs, err := st.DeleteUser(r.Context(), userID)
	if serverIDs != nil {
		// the rows are gone even if removing some files failed
		cacheErr := keyValue.Delete(fmt.Sprintf("user_exists:%d", userID))
		if cacheErr != nil {
			sugar.Error(cacheErr)
		}

		for _, serverID := range serverIDs {
			emit(hub.ServerDeleted, hub.ChannelTypeServerList, fmt.Sprint(serverID), serverID)
		}

		http.SetCookie(w, jwt.ExpiredCookie())
	}
	if err != nil {
		handleError(w, err)
	}
}
