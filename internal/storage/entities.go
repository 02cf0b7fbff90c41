package storage

import "time"

// Credentials is the persisted session. UserJSON is stored as the serialized
// user so that decoding failures surface at hydrate time, not at write time.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	UserJSON     string
	SavedAt      time.Time
}

const SettingLastUsername = "last_username"
