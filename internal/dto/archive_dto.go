package dto

import "github.com/nozzip/seccional/internal/ledger"

type ArchiveListResponse struct {
	Data       []ledger.ArchivedDay `json:"data"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	TotalPages int                  `json:"total_pages"`
}
