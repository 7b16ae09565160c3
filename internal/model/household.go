package model

import "time"

// Household anchors all schedule evaluation for its members: every reminder
// slot and quiet-hour window is interpreted in the household's time zone.
type Household struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	TimeZone string `json:"time_zone"` // IANA identifier

	// Home Assistant notify settings, used by the homeassistant channel.
	HABaseURL       string `json:"ha_base_url"`
	HAToken         string `json:"-"`
	HADefaultTarget string `json:"ha_default_target"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type HouseholdMember struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	UserID      int64     `json:"user_id"`
	Role        string    `json:"role"` // admin or member
	CreatedAt   time.Time `json:"created_at"`
}

// User is the contact surface the dispatcher reads. Account management is
// owned elsewhere; the scheduler only needs endpoints and channel order.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"` // E.164

	// Web push subscription, empty when the user never subscribed.
	PushEndpoint string `json:"push_endpoint"`
	PushP256dh   string `json:"-"`
	PushAuth     string `json:"-"`

	HATarget string `json:"ha_target"` // e.g. mobile_app_pixel

	// Preferred channel order, highest priority first. Empty = default order.
	ChannelOrder []string `json:"channel_order"`

	CreatedAt time.Time `json:"created_at"`
}
