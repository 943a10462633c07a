package models

import "time"

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Author is the public view of a User embedded in posts and comments.
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

func (u *User) Author() *Author {
	return &Author{ID: u.ID, Username: u.Username, Email: u.Email}
}
