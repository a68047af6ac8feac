package models

import (
	"fmt"
	"time"
)

type User struct {
	ID          int64  `json:"id,string,omitempty"`
	Email       string `json:"email,omitempty"`
	UserName    string `json:"userName,omitempty"`
	DisplayName string `json:"displayName"`
	Password    []byte `json:"-"`
}

type Member struct {
	UserID      int64     `json:"userID,string"`
	DisplayName string    `json:"displayName"`
	Since       time.Time `json:"since"`
}

// Category groups servers. Icon is a path relative to the upload root, empty when unset.
type Category struct {
	ID          int64  `json:"id,string"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type Server struct {
	ID          int64  `json:"id,string"`
	OwnerID     int64  `json:"ownerID,string"`
	CategoryID  int64  `json:"categoryID,string"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Channel struct {
	ID       int64  `json:"id,string"`
	OwnerID  int64  `json:"ownerID,string"`
	ServerID int64  `json:"serverID,string"`
	Name     string `json:"name"`
	Topic    string `json:"topic"`
	Icon     string `json:"icon"`
	Banner   string `json:"banner"`
}

func (c Category) String() string {
	return c.Name
}

func (s Server) String() string {
	return fmt.Sprintf("%s-%d", s.Name, s.ID)
}

func (c Channel) String() string {
	return c.Name
}
