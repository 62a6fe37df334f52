package models

import "time"

type AccType string

const (
	AccTypeAdmin      AccType = "admin"
	AccTypeStaff      AccType = "staff"
	AccTypeSuperadmin AccType = "superadmin"
	AccTypeCustomer   AccType = "customer"
)

type User struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username   string     `gorm:"uniqueIndex;not null" json:"username"`
	Email      string     `gorm:"uniqueIndex;not null" json:"email"`
	Password   string     `gorm:"not null" json:"-"`
	FirstName  string     `gorm:"not null" json:"first_name"`
	MidInitial *string    `gorm:"size:5" json:"mid_initial"`
	LastName   string     `gorm:"not null" json:"last_name"`
	Phone      *string    `gorm:"size:15" json:"phone"`
	Address    *string    `gorm:"type:text" json:"address"`
	AccType    AccType    `gorm:"type:varchar(20);not null;default:'staff'" json:"acc_type"`
	Image      *string    `gorm:"size:255" json:"image"`
	IsActive   bool       `gorm:"default:true" json:"is_active"`
	LastLogin  *time.Time `json:"last_login"`
	CreatedAt  *time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  *time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

const (
	LogTypeUser        = "User logs"
	LogTypeTransaction = "Transaction logs"
)

type Log struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	LogType     string    `gorm:"size:255;not null;index" json:"log_type"`
	Description string    `gorm:"type:text;not null" json:"description"`
	LogDatetime time.Time `gorm:"autoCreateTime;index" json:"log_datetime"`
	UserID      int64     `gorm:"not null;index" json:"user_id"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
