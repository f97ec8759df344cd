package memory

import (
	"time"

	"notesync-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

const treeCacheKey = "tree"

// TreeCacheRepository keeps the last tree document read from or written to
// the store. Entries are clones; callers never share a tree with the cache.
type TreeCacheRepository struct {
	cache *cache.Cache
}

func NewTreeCacheRepository(ttl time.Duration) *TreeCacheRepository {
	// Expired entries are purged at twice the TTL
	c := cache.New(ttl, 2*ttl)
	return &TreeCacheRepository{
		cache: c,
	}
}

func (r *TreeCacheRepository) Save(tree *entity.Tree) {
	r.cache.Set(treeCacheKey, tree.Clone(), cache.DefaultExpiration)
}

func (r *TreeCacheRepository) Get() (*entity.Tree, bool) {
	if x, found := r.cache.Get(treeCacheKey); found {
		return x.(*entity.Tree).Clone(), true
	}
	return nil, false
}

func (r *TreeCacheRepository) Invalidate() {
	r.cache.Delete(treeCacheKey)
}
