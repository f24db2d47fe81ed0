package cache

import (
	"context"

	"github.com/tutordesk/tutordesk/internal/domain/procedure"
	"github.com/tutordesk/tutordesk/internal/types"
)

const (
	keyProcedureTypePrefix = "procedure_type:"
	keyProcedureTypeList   = "procedure_types"
)

// procedureTypeRepository serves the read-only procedure catalog from memory
// and delegates everything else
type procedureTypeRepository struct {
	procedure.Repository
	cache Cache
}

func NewCachedProcedureRepository(repo procedure.Repository, cache Cache) procedure.Repository {
	return &procedureTypeRepository{Repository: repo, cache: cache}
}

func (r *procedureTypeRepository) GetType(ctx context.Context, code types.ProcedureTypeCode) (*procedure.ProcedureType, error) {
	key := keyProcedureTypePrefix + string(code)
	if v, ok := r.cache.Get(ctx, key); ok {
		if pt, ok := v.(*procedure.ProcedureType); ok {
			return pt, nil
		}
	}
	pt, err := r.Repository.GetType(ctx, code)
	if err != nil {
		return nil, err
	}
	r.cache.Set(ctx, key, pt, ExpiryDefaultInMemory)
	return pt, nil
}

func (r *procedureTypeRepository) ListTypes(ctx context.Context) ([]*procedure.ProcedureType, error) {
	if v, ok := r.cache.Get(ctx, keyProcedureTypeList); ok {
		if pts, ok := v.([]*procedure.ProcedureType); ok {
			return pts, nil
		}
	}
	pts, err := r.Repository.ListTypes(ctx)
	if err != nil {
		return nil, err
	}
	r.cache.Set(ctx, keyProcedureTypeList, pts, ExpiryDefaultInMemory)
	return pts, nil
}
