package handlers

import (
	"chatapp-servers/internal/hub"
	"chatapp-servers/internal/models"
	"fmt"
	"net/http"
)

type serverRequest struct {
	Name        string `validate:"required,max=100"`
	Description string `validate:"max=250"`
}

func CreateServer(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	if !parseForm(w, r) {
		return
	}

	categoryID, ok := parseID(r, "categoryID")
	if !ok {
		http.Error(w, "Invalid category ID", http.StatusBadRequest)
		return
	}

	serverName := r.FormValue("name")
	if serverName == "" {
		serverName = "My server"
	}

	request := serverRequest{Name: serverName, Description: r.FormValue("description")}
	if !validateRequest(w, request) {
		return
	}

	server := models.Server{
		OwnerID:     userID,
		CategoryID:  categoryID,
		Name:        request.Name,
		Description: request.Description,
	}

	err := st.SaveServer(r.Context(), &server)
	if err != nil {
		handleError(w, err)
		return
	}

	subscribe(r, server.ID, hub.ChannelTypeServerList)

	writeJSON(w, server)
}

func GetServerList(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	var servers []models.Server
	var err error

	if categoryID, ok := parseID(r, "categoryID"); ok {
		servers, err = st.ListServersByCategory(r.Context(), categoryID)
	} else {
		servers, err = st.ListServersByMember(r.Context(), userID)
		if err == nil {
			for _, server := range servers {
				subscribe(r, server.ID, hub.ChannelTypeServerList)
			}
		}
	}
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, servers)
}

func UpdateServer(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	if !parseForm(w, r) {
		return
	}

	serverID, ok := parseID(r, "serverID")
	if !ok {
		http.Error(w, "Invalid server ID", http.StatusBadRequest)
		return
	}

	server, err := st.GetServer(r.Context(), serverID)
	if err != nil {
		handleError(w, err)
		return
	}

	if server.OwnerID != userID {
		sugar.Warnf("User ID [%d] tried to update server ID [%d] they don't own", userID, serverID)
		http.Error(w, "You don't own this server", http.StatusForbidden)
		return
	}

	if r.Form.Has("name") {
		server.Name = r.FormValue("name")
	}
	if r.Form.Has("description") {
		server.Description = r.FormValue("description")
	}
	if r.Form.Has("categoryID") {
		categoryID, ok := parseID(r, "categoryID")
		if !ok {
			http.Error(w, "Invalid category ID", http.StatusBadRequest)
			return
		}
		server.CategoryID = categoryID
	}

	if !validateRequest(w, serverRequest{Name: server.Name, Description: server.Description}) {
		return
	}

	err = st.SaveServer(r.Context(), &server)
	if err != nil {
		handleError(w, err)
		return
	}

	emit(hub.ServerModified, hub.ChannelTypeServerList, server, server.ID)
	writeJSON(w, server)
}

func DeleteServer(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	serverID, ok := parseID(r, "serverID")
	if !ok {
		http.Error(w, "Invalid server ID", http.StatusBadRequest)
		return
	}

	deleted, err := st.DeleteServer(r.Context(), serverID, userID)
	if deleted {
		emit(hub.ServerDeleted, hub.ChannelTypeServerList, fmt.Sprint(serverID), serverID)
	}
	if err != nil {
		handleError(w, err)
	}
}
