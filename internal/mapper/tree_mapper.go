package mapper

import (
	"encoding/json"
	"time"

	"notesync-be/internal/entity"
	"notesync-be/internal/model"

	"gorm.io/datatypes"
)

type TreeMapper struct{}

func NewTreeMapper() *TreeMapper {
	return &TreeMapper{}
}

func (m *TreeMapper) ToEntity(s *model.TreeState) (*entity.StoredTree, error) {
	if s == nil {
		return nil, nil
	}

	tree := entity.NewTree()
	if len(s.Items) > 0 {
		if err := json.Unmarshal(s.Items, &tree.Items); err != nil {
			return nil, err
		}
	}
	if len(s.Roots) > 0 {
		if err := json.Unmarshal(s.Roots, &tree.Roots); err != nil {
			return nil, err
		}
	}
	tree.Normalize()

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.StoredTree{Tree: tree, UpdatedAt: updatedAt}, nil
}

func (m *TreeMapper) ToModel(tree *entity.Tree) (*model.TreeState, error) {
	if tree == nil {
		tree = entity.NewTree()
	}
	tree.Normalize()

	items, err := json.Marshal(tree.Items)
	if err != nil {
		return nil, err
	}
	roots, err := json.Marshal(tree.Roots)
	if err != nil {
		return nil, err
	}

	return &model.TreeState{
		SingletonKey: model.MainTreeKey,
		Items:        datatypes.JSON(items),
		Roots:        datatypes.JSON(roots),
	}, nil
}
