package handlers

import (
	"chatapp-servers/internal/hub"
	"chatapp-servers/internal/models"
	"fmt"
	"net/http"
)

type channelRequest struct {
	Name  string `validate:"required,max=100"`
	Topic string `validate:"max=100"`
}

// canManageChannel allows the channel's owner and the owner of its server.
func canManageChannel(r *http.Request, channel models.Channel) (bool, error) {
	userID := userIDFrom(r)
	if channel.OwnerID == userID {
		return true, nil
	}
	return st.IsServerOwner(r.Context(), channel.ServerID, userID)
}

func CreateChannel(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	if !parseForm(w, r) {
		return
	}

	serverID, ok := parseID(r, "serverID")
	if !ok {
		http.Error(w, "Invalid server ID", http.StatusBadRequest)
		return
	}

	ownsServer, err := st.IsServerOwner(r.Context(), serverID, userID)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
	if !ownsServer {
		sugar.Warnf("User ID [%d] tried to create a channel in server ID [%d] they don't own", userID, serverID)
		http.Error(w, "You don't own this server", http.StatusForbidden)
		return
	}

	channelName := r.FormValue("name")
	if channelName == "" {
		channelName = "New channel"
	}

	request := channelRequest{Name: channelName, Topic: r.FormValue("topic")}
	if !validateRequest(w, request) {
		return
	}

	icon, err := formUpload(r, "icon")
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "", http.StatusBadRequest)
		return
	}
	banner, err := formUpload(r, "banner")
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	channel := models.Channel{
		OwnerID:  userID,
		ServerID: serverID,
		Name:     request.Name,
		Topic:    request.Topic,
	}

	err = st.SaveChannel(r.Context(), &channel, icon, banner)
	if err != nil {
		handleError(w, err)
		return
	}

	emit(hub.ChannelCreated, hub.ChannelTypeServer, channel, serverID)
	writeJSON(w, channel)
}

func GetChannelList(w http.ResponseWriter, r *http.Request) {
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

	channels, err := st.ListChannels(r.Context(), serverID)
	if err != nil {
		handleError(w, err)
		return
	}

	subscribe(r, serverID, hub.ChannelTypeServer)

	writeJSON(w, channels)
}

func UpdateChannel(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	channelID, ok := parseID(r, "channelID")
	if !ok {
		http.Error(w, "Invalid channel ID", http.StatusBadRequest)
		return
	}

	channel, err := st.GetChannel(r.Context(), channelID)
	if err != nil {
		handleError(w, err)
		return
	}

	allowed, err := canManageChannel(r, channel)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
	if !allowed {
		http.Error(w, "You can't modify this channel", http.StatusForbidden)
		return
	}

	if r.Form.Has("name") {
		channel.Name = r.FormValue("name")
	}
	if r.Form.Has("topic") {
		channel.Topic = r.FormValue("topic")
	}
	if !validateRequest(w, channelRequest{Name: channel.Name, Topic: channel.Topic}) {
		return
	}

	icon, err := formUpload(r, "icon")
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "", http.StatusBadRequest)
		return
	}
	banner, err := formUpload(r, "banner")
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	if icon == nil && r.FormValue("clearIcon") == "true" {
		channel.Icon = ""
	}
	if banner == nil && r.FormValue("clearBanner") == "true" {
		channel.Banner = ""
	}

	err = st.SaveChannel(r.Context(), &channel, icon, banner)
	if err != nil {
		handleError(w, err)
		return
	}

	emit(hub.ChannelModified, hub.ChannelTypeServer, channel, channel.ServerID)
	writeJSON(w, channel)
}

func DeleteChannel(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	channelID, ok := parseID(r, "channelID")
	if !ok {
		http.Error(w, "Invalid channel ID", http.StatusBadRequest)
		return
	}

	channel, err := st.GetChannel(r.Context(), channelID)
	if err != nil {
		handleError(w, err)
		return
	}

	allowed, err := canManageChannel(r, channel)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
	if !allowed {
		http.Error(w, "You can't delete this channel", http.StatusForbidden)
		return
	}

	deleted, err := st.DeleteChannel(r.Context(), channelID)
	if deleted.ID != 0 {
		emit(hub.ChannelDeleted, hub.ChannelTypeServer, fmt.Sprint(channelID), deleted.ServerID)
	}
	if err != nil {
		handleError(w, err)
	}
}
