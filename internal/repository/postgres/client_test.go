package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tutordesk/tutordesk/internal/types"
)

func TestBuildClientWhere(t *testing.T) {
	tests := []struct {
		name      string
		filter    *types.ClientFilter
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "nil filter",
			wantWhere: "TRUE",
			wantArgs:  []any{},
		},
		{
			name:      "type and status",
			filter:    &types.ClientFilter{Type: types.ClientTypeIndividual, Status: types.ClientStatusClient},
			wantWhere: "TRUE AND type_client = $1 AND client_status = $2",
			wantArgs:  []any{types.ClientTypeIndividual, types.ClientStatusClient},
		},
		{
			name:      "search is trimmed and wrapped",
			filter:    &types.ClientFilter{Search: "  martin "},
			wantWhere: "TRUE AND identity::text ILIKE $1",
			wantArgs:  []any{"%martin%"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildClientWhere(tt.filter)
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
