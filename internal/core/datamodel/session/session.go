package session

import "time"

// Entry is one persisted key of a session scope.
type Entry struct {
	Scope     string    `gorm:"column:scope;primaryKey;size:128"`
	Key       string    `gorm:"column:key;primaryKey;size:32"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;index"`
}

func (Entry) TableName() string {
	return "session_entries"
}
