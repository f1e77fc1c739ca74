package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/duda4418/dishwise-backend/internal/logger"
	"github.com/duda4418/dishwise-backend/internal/types"
)

type CategoryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, category *types.ProblemCategory) (*types.ProblemCategory, error)
	Update(ctx context.Context, tx *gorm.DB, category *types.ProblemCategory) error
	Delete(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID) error
	GetByID(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID) (*types.ProblemCategory, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.ProblemCategory, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.ProblemCategory, error)
}

type categoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	repoLog := baseLog.With("repo", "CategoryRepo")
	return &categoryRepo{db: db, log: repoLog}
}

func (r *categoryRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *categoryRepo) Create(ctx context.Context, tx *gorm.DB, category *types.ProblemCategory) (*types.ProblemCategory, error) {
	if err := r.tx(tx).WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

func (r *categoryRepo) Update(ctx context.Context, tx *gorm.DB, category *types.ProblemCategory) error {
	return r.tx(tx).WithContext(ctx).Save(category).Error
}

func (r *categoryRepo) Delete(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID) error {
	return r.tx(tx).WithContext(ctx).
		Where("id = ?", categoryID).
		Delete(&types.ProblemCategory{}).Error
}

func (r *categoryRepo) GetByID(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID) (*types.ProblemCategory, error) {
	var result types.ProblemCategory
	err := r.tx(tx).WithContext(ctx).
		Where("id = ?", categoryID).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *categoryRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.ProblemCategory, error) {
	var result types.ProblemCategory
	err := r.tx(tx).WithContext(ctx).
		Where("slug = ?", slug).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *categoryRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.ProblemCategory, error) {
	var results []*types.ProblemCategory
	if err := r.tx(tx).WithContext(ctx).
		Order("name ASC").
		Limit(500).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

type CauseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, cause *types.ProblemCause) (*types.ProblemCause, error)
	Update(ctx context.Context, tx *gorm.DB, cause *types.ProblemCause) error
	Delete(ctx context.Context, tx *gorm.DB, causeID uuid.UUID) error
	GetByID(ctx context.Context, tx *gorm.DB, causeID uuid.UUID) (*types.ProblemCause, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID, slug string) (*types.ProblemCause, error)
	ListByCategory(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID) ([]*types.ProblemCause, error)
}

type causeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCauseRepo(db *gorm.DB, baseLog *logger.Logger) CauseRepo {
	repoLog := baseLog.With("repo", "CauseRepo")
	return &causeRepo{db: db, log: repoLog}
}

func (r *causeRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *causeRepo) Create(ctx context.Context, tx *gorm.DB, cause *types.ProblemCause) (*types.ProblemCause, error) {
	if err := r.tx(tx).WithContext(ctx).Create(cause).Error; err != nil {
		return nil, err
	}
	return cause, nil
}

func (r *causeRepo) Update(ctx context.Context, tx *gorm.DB, cause *types.ProblemCause) error {
	return r.tx(tx).WithContext(ctx).Save(cause).Error
}

func (r *causeRepo) Delete(ctx context.Context, tx *gorm.DB, causeID uuid.UUID) error {
	return r.tx(tx).WithContext(ctx).
		Where("id = ?", causeID).
		Delete(&types.ProblemCause{}).Error
}

func (r *causeRepo) GetByID(ctx context.Context, tx *gorm.DB, causeID uuid.UUID) (*types.ProblemCause, error) {
	var result types.ProblemCause
	err := r.tx(tx).WithContext(ctx).
		Where("id = ?", causeID).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *causeRepo) GetBySlug(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID, slug string) (*types.ProblemCause, error) {
	var result types.ProblemCause
	err := r.tx(tx).WithContext(ctx).
		Where("category_id = ? AND slug = ?", categoryID, slug).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *causeRepo) ListByCategory(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID) ([]*types.ProblemCause, error) {
	var results []*types.ProblemCause
	if err := r.tx(tx).WithContext(ctx).
		Where("category_id = ?", categoryID).
		Order("default_priority ASC, name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

type SolutionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, solution *types.ProblemSolution) (*types.ProblemSolution, error)
	Update(ctx context.Context, tx *gorm.DB, solution *types.ProblemSolution) error
	Delete(ctx context.Context, tx *gorm.DB, solutionID uuid.UUID) error
	GetByID(ctx context.Context, tx *gorm.DB, solutionID uuid.UUID) (*types.ProblemSolution, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.ProblemSolution, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, solutionIDs []uuid.UUID) ([]*types.ProblemSolution, error)
	ListByCause(ctx context.Context, tx *gorm.DB, causeID uuid.UUID) ([]*types.ProblemSolution, error)
}

type solutionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSolutionRepo(db *gorm.DB, baseLog *logger.Logger) SolutionRepo {
	repoLog := baseLog.With("repo", "SolutionRepo")
	return &solutionRepo{db: db, log: repoLog}
}

func (r *solutionRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *solutionRepo) Create(ctx context.Context, tx *gorm.DB, solution *types.ProblemSolution) (*types.ProblemSolution, error) {
	if err := r.tx(tx).WithContext(ctx).Create(solution).Error; err != nil {
		return nil, err
	}
	return solution, nil
}

func (r *solutionRepo) Update(ctx context.Context, tx *gorm.DB, solution *types.ProblemSolution) error {
	return r.tx(tx).WithContext(ctx).Save(solution).Error
}

func (r *solutionRepo) Delete(ctx context.Context, tx *gorm.DB, solutionID uuid.UUID) error {
	return r.tx(tx).WithContext(ctx).
		Where("id = ?", solutionID).
		Delete(&types.ProblemSolution{}).Error
}

func (r *solutionRepo) GetByID(ctx context.Context, tx *gorm.DB, solutionID uuid.UUID) (*types.ProblemSolution, error) {
	var result types.ProblemSolution
	err := r.tx(tx).WithContext(ctx).
		Where("id = ?", solutionID).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *solutionRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.ProblemSolution, error) {
	var result types.ProblemSolution
	err := r.tx(tx).WithContext(ctx).
		Where("slug = ?", slug).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *solutionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, solutionIDs []uuid.UUID) ([]*types.ProblemSolution, error) {
	var results []*types.ProblemSolution
	if len(solutionIDs) == 0 {
		return results, nil
	}
	if err := r.tx(tx).WithContext(ctx).
		Where("id IN ?", solutionIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *solutionRepo) ListByCause(ctx context.Context, tx *gorm.DB, causeID uuid.UUID) ([]*types.ProblemSolution, error) {
	var results []*types.ProblemSolution
	if err := r.tx(tx).WithContext(ctx).
		Where("cause_id = ?", causeID).
		Order("step_order ASC, title ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
