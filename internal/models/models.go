package models

import "time"

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	Email        string `gorm:"unique;not null"          json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"           json:"id"`
	Token     string `gorm:"unique;not null"      json:"-"`
	UserID    uint   `gorm:"index;not null"       json:"user_id"`
	JTI       string `gorm:"uniqueIndex;not null" json:"jti"`
	ExpiresAt int64  `gorm:"not null"             json:"expires_at"`
	Revoked   bool   `gorm:"default:false"        json:"revoked"`
}

type Event struct {
	ID               uint       `gorm:"primaryKey;autoIncrement"       json:"id"`
	Title            string     `gorm:"not null"                       json:"title"`
	Category         string     `gorm:"not null"                       json:"category"`
	StartDate        time.Time  `gorm:"not null;index"                 json:"startDate"`
	EndDate          *time.Time `json:"endDate,omitempty"`
	Location         string     `gorm:"not null"                       json:"location"`
	ImageURL         string     `json:"imageUrl,omitempty"`
	Price            float64    `gorm:"not null"                       json:"price"`
	TicketsAvailable uint       `gorm:"not null;check:tickets_available>=0" json:"ticketsAvailable"`
	Organizer        string     `json:"organizer,omitempty"`
	Description      string     `json:"description,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

type Order struct {
	ID        uint        `gorm:"primaryKey"     json:"id"`
	UserID    uint        `gorm:"index;not null" json:"user_id"`
	Total     float64     `gorm:"not null"       json:"total"`
	Notified  bool        `gorm:"default:false"  json:"notified"`
	CreatedAt time.Time   `json:"created_at"`
	Items     []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

type OrderItem struct {
	ID        uint    `gorm:"primaryKey"                  json:"id"`
	OrderID   uint    `gorm:"index;not null"              json:"order_id"`
	EventID   uint    `gorm:"not null"                    json:"event_id"`
	Quantity  uint    `gorm:"check:quantity>0"            json:"quantity"`
	UnitPrice float64 `gorm:"not null"                    json:"unit_price"`
}
