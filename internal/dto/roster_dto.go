package dto

type PutRosterRequest struct {
	MorningResponsible   string `json:"morning_responsible"   validate:"max=120"`
	AfternoonResponsible string `json:"afternoon_responsible" validate:"max=120"`
}

type RosterResponse struct {
	Weekday              string `json:"weekday"`
	MorningResponsible   string `json:"morning_responsible"`
	AfternoonResponsible string `json:"afternoon_responsible"`
	// Fallback is true when the weekday had no entry and the default day was used.
	Fallback bool `json:"fallback"`
}
