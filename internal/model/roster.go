package model

import "time"

// RosterEntry assigns the staff on duty for one weekday.
// Weekday is lower-case English ("monday") or the configured default key.
type RosterEntry struct {
	Weekday              string    `gorm:"type:varchar(20);primaryKey" json:"weekday"`
	MorningResponsible   string    `gorm:"type:varchar(120)" json:"morning_responsible"`
	AfternoonResponsible string    `gorm:"type:varchar(120)" json:"afternoon_responsible"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (RosterEntry) TableName() string { return "roster_entries" }

// Responsibles returns the names ordered like the shift layout.
func (r RosterEntry) Responsibles() []string {
	return []string{r.MorningResponsible, r.AfternoonResponsible}
}
