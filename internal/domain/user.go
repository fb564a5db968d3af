package domain

import (
	"context"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	DefaultAvatar = "https://cdn.pixabay.com/photo/2015/10/05/22/37/blank-profile-picture-973460_1280.png"
)

type User struct {
	ID           string    `gorm:"primaryKey;size:32" bson:"_id" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:64;not null" bson:"username" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:191;not null" bson:"email" json:"email"`
	Avatar       string    `gorm:"size:512" bson:"avatar" json:"avatar"`
	PasswordHash string    `gorm:"column:password_hash;size:100;not null" bson:"password" json:"-"`
	Role         string    `gorm:"size:16;not null;default:user" bson:"role" json:"role"`
	Banned       bool      `gorm:"not null;default:false" bson:"banned" json:"banned,omitempty"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// UserPatch is a profile update; nil means unchanged.
type UserPatch struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
	// List pages users newest first; q filters username/email by substring.
	List(ctx context.Context, offset, limit int, q string) ([]User, int64, error)
}
