package dto

import (
	"github.com/tutordesk/tutordesk/internal/domain/audit"
	"github.com/tutordesk/tutordesk/internal/types"
)

type ListAuditLogsResponse struct {
	Items      []*audit.Entry            `json:"items"`
	Pagination types.PaginationResponse `json:"pagination"`
}
