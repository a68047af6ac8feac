package handlers

import (
	"chatapp-servers/internal/hub"
	"net/http"
)

func JoinServer(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	serverID, ok := parseID(r, "serverID")
	if !ok {
		http.Error(w, "Invalid server ID", http.StatusBadRequest)
		return
	}

	err := st.AddMember(r.Context(), serverID, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	server, err := st.GetServer(r.Context(), serverID)
	if err != nil {
		handleError(w, err)
		return
	}

	subscribe(r, serverID, hub.ChannelTypeServerList)

	writeJSON(w, server)
}

func LeaveServer(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	serverID, ok := parseID(r, "serverID")
	if !ok {
		http.Error(w, "Invalid server ID", http.StatusBadRequest)
		return
	}

	err := st.RemoveMember(r.Context(), serverID, userID)
	if err != nil {
		handleError(w, err)
	}
}

func GetMemberList(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	serverID, ok := parseID(r, "serverID")
	if !ok {
		http.Error(w, "Invalid server ID", http.StatusBadRequest)
		return
	}

	isMember, err := st.IsMember(r.Context(), serverID, userID)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
	if !isMember {
		http.Error(w, "Not a member of this server", http.StatusForbidden)
		return
	}

	members, err := st.ListMembers(r.Context(), serverID)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, members)
}
