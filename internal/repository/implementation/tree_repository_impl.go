package implementation

import (
	"context"
	"errors"

	"notesync-be/internal/entity"
	"notesync-be/internal/mapper"
	"notesync-be/internal/model"
	"notesync-be/internal/repository/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TreeRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TreeMapper
}

func NewTreeRepository(db *gorm.DB) contract.TreeRepository {
	return &TreeRepositoryImpl{
		db:     db,
		mapper: mapper.NewTreeMapper(),
	}
}

func (r *TreeRepositoryImpl) Find(ctx context.Context) (*entity.StoredTree, error) {
	var m model.TreeState
	err := r.db.WithContext(ctx).Where("singleton_key = ?", model.MainTreeKey).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *TreeRepositoryImpl) Save(ctx context.Context, tree *entity.Tree) error {
	m, err := r.mapper.ToModel(tree)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "singleton_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"items", "roots", "updated_at"}),
	}).Create(m).Error
}
