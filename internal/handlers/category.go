package handlers

import (
	"chatapp-servers/internal/hub"
	"chatapp-servers/internal/models"
	"fmt"
	"net/http"
)

type categoryRequest struct {
	Name        string `validate:"required,max=100"`
	Description string
}

func GetCategoryList(w http.ResponseWriter, r *http.Request) {
	categories, err := st.ListCategories(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	subscribe(r, 0, hub.ChannelTypeCategories)

	writeJSON(w, categories)
}

func CreateCategory(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	request := categoryRequest{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
	}
	if !validateRequest(w, request) {
		return
	}

	icon, err := formUpload(r, "icon")
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	category := models.Category{
		Name:        request.Name,
		Description: request.Description,
	}

	err = st.SaveCategory(r.Context(), &category, icon)
	if err != nil {
		handleError(w, err)
		return
	}

	emit(hub.CategoryModified, hub.ChannelTypeCategories, category, 0)
	writeJSON(w, category)
}

func UpdateCategory(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	categoryID, ok := parseID(r, "categoryID")
	if !ok {
		http.Error(w, "Invalid category ID", http.StatusBadRequest)
		return
	}

	category, err := st.GetCategory(r.Context(), categoryID)
	if err != nil {
		handleError(w, err)
		return
	}

	if r.Form.Has("name") {
		category.Name = r.FormValue("name")
	}
	if r.Form.Has("description") {
		category.Description = r.FormValue("description")
	}
	if !validateRequest(w, categoryRequest{Name: category.Name, Description: category.Description}) {
		return
	}

	icon, err := formUpload(r, "icon")
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "", http.StatusBadRequest)
		return
	}
	if icon == nil && r.FormValue("clearIcon") == "true" {
		category.Icon = ""
	}

	err = st.SaveCategory(r.Context(), &category, icon)
	if err != nil {
		handleError(w, err)
		return
	}

	emit(hub.CategoryModified, hub.ChannelTypeCategories, category, 0)
	writeJSON(w, category)
}

func DeleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := parseID(r, "categoryID")
	if !ok {
		http.Error(w, "Invalid category ID", http.StatusBadRequest)
		return
	}

	serverIDs, err := st.DeleteCategory(r.Context(), categoryID)
	if serverIDs != nil {
		emit(hub.CategoryDeleted, hub.ChannelTypeCategories, fmt.Sprint(categoryID), 0)
		for _, serverID := range serverIDs {
			emit(hub.ServerDeleted, hub.ChannelTypeServerList, fmt.Sprint(serverID), serverID)
		}
	}
	if err != nil {
		handleError(w, err)
	}
}
