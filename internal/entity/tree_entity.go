package entity

// TreeItem is one node of the note hierarchy. Children order is display order.
type TreeItem struct {
	Id       string   `json:"id"`
	ParentId string   `json:"parentId"`
	Children []string `json:"children"`
	Title    string   `json:"title,omitempty"`
}

// Tree is the singleton index of every note in the hierarchy. Roots holds the
// ordered children of RootID; RootID itself never appears in Items.
type Tree struct {
	Items map[string]*TreeItem `json:"items"`
	Roots []string             `json:"roots"`
}

func NewTree() *Tree {
	return &Tree{
		Items: make(map[string]*TreeItem),
		Roots: make([]string, 0),
	}
}

func (t *Tree) Contains(id string) bool {
	_, ok := t.Items[id]
	return ok
}

// Clone returns a deep copy so cached trees are never mutated in place.
func (t *Tree) Clone() *Tree {
	out := NewTree()
	out.Roots = append(out.Roots, t.Roots...)
	for id, item := range t.Items {
		children := make([]string, len(item.Children))
		copy(children, item.Children)
		out.Items[id] = &TreeItem{
			Id:       item.Id,
			ParentId: item.ParentId,
			Children: children,
			Title:    item.Title,
		}
	}
	return out
}

// Normalize fills nil collections left by decoding.
func (t *Tree) Normalize() {
	if t.Items == nil {
		t.Items = make(map[string]*TreeItem)
	}
	if t.Roots == nil {
		t.Roots = make([]string, 0)
	}
	for id, item := range t.Items {
		if item.Children == nil {
			item.Children = make([]string, 0)
		}
		if item.Id == "" {
			item.Id = id
		}
		if item.ParentId == "" {
			item.ParentId = RootID
		}
	}
}

// childrenOf returns the ordered children list of parentId, or nil when the
// parent is neither the root nor a known item.
func (t *Tree) childrenOf(parentId string) *[]string {
	if parentId == RootID || parentId == "" {
		return &t.Roots
	}
	if parent, ok := t.Items[parentId]; ok {
		return &parent.Children
	}
	return nil
}

// isDescendant reports whether candidate sits somewhere below ancestor.
func (t *Tree) isDescendant(candidate, ancestor string) bool {
	seen := make(map[string]bool)
	for cur := candidate; cur != "" && cur != RootID; {
		if cur == ancestor {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true
		item, ok := t.Items[cur]
		if !ok {
			return false
		}
		cur = item.ParentId
	}
	return false
}

// resolveParent maps an unusable parent for id (unknown, itself or one of its
// descendants) to the root.
func (t *Tree) resolveParent(id, parentId string) string {
	if parentId == "" || parentId == id || t.childrenOf(parentId) == nil || t.isDescendant(parentId, id) {
		return RootID
	}
	return parentId
}

// Insert adds id under parentId at index. An id already in the tree is moved.
// Unknown parents fall back to the root.
func (t *Tree) Insert(id, parentId string, index int) {
	if id == "" || id == RootID {
		return
	}
	parentId = t.resolveParent(id, parentId)

	item, exists := t.Items[id]
	if exists {
		t.detach(id)
	} else {
		item = &TreeItem{Id: id, Children: make([]string, 0)}
		t.Items[id] = item
	}
	item.ParentId = parentId

	siblings := t.childrenOf(parentId)
	*siblings = insertAt(*siblings, id, index)
}

// Append adds id as the last child of parentId.
func (t *Tree) Append(id, parentId string) {
	parentId = t.resolveParent(id, parentId)
	siblings := *t.childrenOf(parentId)
	index := len(siblings)
	if indexOf(siblings, id) >= 0 {
		index--
	}
	t.Insert(id, parentId, index)
}

// Remove deletes id from Items and from its parent's children. Its children
// take its place under its parent, in order.
func (t *Tree) Remove(id string) bool {
	item, ok := t.Items[id]
	if !ok {
		t.Roots = without(t.Roots, id)
		return false
	}

	parentId := item.ParentId
	siblings := t.childrenOf(parentId)
	if siblings == nil {
		parentId = RootID
		siblings = &t.Roots
	}
	position := indexOf(*siblings, id)
	t.detach(id)
	delete(t.Items, id)

	if position < 0 {
		position = len(*siblings)
	}
	for i, child := range item.Children {
		childItem, ok := t.Items[child]
		if !ok {
			continue
		}
		childItem.ParentId = parentId
		*siblings = insertAt(*siblings, child, position+i)
	}
	return true
}

// SetTitle refreshes the cached display label of id.
func (t *Tree) SetTitle(id, title string) bool {
	item, ok := t.Items[id]
	if !ok {
		return false
	}
	item.Title = title
	return true
}

func (t *Tree) detach(id string) {
	item, ok := t.Items[id]
	if ok {
		if siblings := t.childrenOf(item.ParentId); siblings != nil {
			*siblings = without(*siblings, id)
		}
	}
	// Stray references elsewhere are dropped as well.
	t.Roots = without(t.Roots, id)
	for _, other := range t.Items {
		other.Children = without(other.Children, id)
	}
}

func insertAt(list []string, id string, index int) []string {
	if index < 0 {
		index = 0
	}
	if index > len(list) {
		index = len(list)
	}
	list = append(list, "")
	copy(list[index+1:], list[index:])
	list[index] = id
	return list
}

func without(list []string, id string) []string {
	out := list[:0]
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func indexOf(list []string, id string) int {
	for i, v := range list {
		if v == id {
			return i
		}
	}
	return -1
}
