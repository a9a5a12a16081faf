package domain

import "time"

type User struct {
	ID            UserID     `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	Name          string     `gorm:"type:text" db:"name" json:"name"`
	Username      string     `gorm:"type:citext;uniqueIndex:ux_users_username" db:"username" json:"username"`
	Email         string     `gorm:"type:citext;uniqueIndex:ux_users_email" db:"email" json:"email"`
	EmailVerified bool       `gorm:"not null;default:false" db:"email_verified" json:"emailVerified"`
	LastLoginAt   *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time  `gorm:"not null" db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// EmailVerification is one row per sent code; verifying consumes the row.
type EmailVerification struct {
	UserID    UserID    `gorm:"type:uuid;index" db:"user_id"`
	Code      string    `gorm:"type:text;not null" db:"code"`
	ExpiresAt time.Time `gorm:"not null" db:"expires_at"`
	Consumed  bool      `gorm:"not null;default:false" db:"consumed"`
	CreatedAt time.Time `gorm:"not null" db:"created_at"`
}

func (EmailVerification) TableName() string { return "email_verifications" }
