package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"notesync-be/internal/entity"
	"notesync-be/internal/pkg/logger"
	"notesync-be/internal/repository/memory"
)

const treeModule = "TreeStore"

// DefaultTreeCacheTTL bounds how stale a read served from the cache can be
// when another instance writes the tree.
const DefaultTreeCacheTTL = 30 * time.Second

type ITreeStore interface {
	Get(ctx context.Context) (*entity.Tree, error)
	Set(ctx context.Context, tree *entity.Tree) error
	AddItem(ctx context.Context, id, parentId string) error
	RemoveItem(ctx context.Context, id string) error
	DeleteItem(ctx context.Context, id string) error
	MoveItem(ctx context.Context, id, toParentId string, index int) error
	MutateItem(ctx context.Context, id, title string) error
	RestoreItem(ctx context.Context, id, parentId string) error
	Contains(ctx context.Context, id string) (bool, error)
}

// TreeStore persists the singleton tree document at tree.json. Mutations are
// serialized and always start from the stored document; plain reads may be
// served from the cache.
type TreeStore struct {
	provider Provider
	cache    *memory.TreeCacheRepository
	logger   logger.ILogger
	mu       sync.Mutex
}

func NewTreeStore(provider Provider, cache *memory.TreeCacheRepository, log logger.ILogger) *TreeStore {
	return &TreeStore{
		provider: provider,
		cache:    cache,
		logger:   log,
	}
}

func (t *TreeStore) Get(ctx context.Context) (*entity.Tree, error) {
	if tree, ok := t.cache.Get(); ok {
		return tree, nil
	}
	tree, err := t.load(ctx)
	if err != nil {
		return nil, err
	}
	t.cache.Save(tree)
	return tree, nil
}

// load reads the stored document, bypassing the cache. A missing document is
// an empty tree.
func (t *TreeStore) load(ctx context.Context) (*entity.Tree, error) {
	content, ok := t.provider.GetObject(ctx, t.provider.TreePath())
	if !ok || content == "" {
		return entity.NewTree(), nil
	}
	tree := entity.NewTree()
	if err := json.Unmarshal([]byte(content), tree); err != nil {
		t.logger.Error(treeModule, "Stored tree is corrupt", map[string]interface{}{"error": err})
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	tree.Normalize()
	return tree, nil
}

func (t *TreeStore) Set(ctx context.Context, tree *entity.Tree) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.save(ctx, tree)
}

func (t *TreeStore) save(ctx context.Context, tree *entity.Tree) error {
	tree.Normalize()
	content, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("encode tree: %w", err)
	}
	if err := t.provider.PutObject(ctx, t.provider.TreePath(), string(content), Options{ContentType: ContentTypeJSON}); err != nil {
		t.cache.Invalidate()
		return err
	}
	t.cache.Save(tree)
	return nil
}

// mutate applies fn to the stored tree and writes it back when fn reports a change.
func (t *TreeStore) mutate(ctx context.Context, fn func(tree *entity.Tree) bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	tree, err := t.load(ctx)
	if err != nil {
		return err
	}
	if !fn(tree) {
		return nil
	}
	return t.save(ctx, tree)
}

// AddItem appends id to parentId's children. An id already present is moved.
func (t *TreeStore) AddItem(ctx context.Context, id, parentId string) error {
	if parentId == "" {
		parentId = entity.RootID
	}
	return t.mutate(ctx, func(tree *entity.Tree) bool {
		if item, ok := tree.Items[id]; ok && item.ParentId == parentId {
			return false
		}
		tree.Append(id, parentId)
		return true
	})
}

func (t *TreeStore) RemoveItem(ctx context.Context, id string) error {
	return t.mutate(ctx, func(tree *entity.Tree) bool {
		return tree.Remove(id)
	})
}

// DeleteItem is the trash flavor of RemoveItem.
func (t *TreeStore) DeleteItem(ctx context.Context, id string) error {
	return t.RemoveItem(ctx, id)
}

func (t *TreeStore) MoveItem(ctx context.Context, id, toParentId string, index int) error {
	return t.mutate(ctx, func(tree *entity.Tree) bool {
		tree.Insert(id, toParentId, index)
		return true
	})
}

func (t *TreeStore) MutateItem(ctx context.Context, id, title string) error {
	return t.mutate(ctx, func(tree *entity.Tree) bool {
		if item, ok := tree.Items[id]; !ok || item.Title == title {
			return false
		}
		return tree.SetTitle(id, title)
	})
}

func (t *TreeStore) RestoreItem(ctx context.Context, id, parentId string) error {
	return t.AddItem(ctx, id, parentId)
}

func (t *TreeStore) Contains(ctx context.Context, id string) (bool, error) {
	tree, err := t.Get(ctx)
	if err != nil {
		return false, err
	}
	return tree.Contains(id), nil
}
