package audit

import (
	"container/list"
	"crypto/sha256"
	"sync"

	"pqscan/pkg/types"
)

// parseCache memoizes parsed files across AuditOne and AuditMany calls.
// Keys combine a content digest with the resolved language, so the same
// bytes audited under two language hints occupy two slots. The cache is
// bounded LRU and safe for concurrent use.
type parseCache struct {
	mu       sync.Mutex
	capacity int
	items    map[parseKey]*list.Element
	order    *list.List // front = most-recently used
}

type parseKey struct {
	digest   [sha256.Size]byte
	language types.Language
}

type parseEntry struct {
	key  parseKey
	file *types.ParsedFile
}

func newParseCache(capacity int) *parseCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &parseCache{
		capacity: capacity,
		items:    make(map[parseKey]*list.Element, capacity),
		order:    list.New(),
	}
}

func cacheKey(content []byte, lang types.Language) parseKey {
	return parseKey{digest: sha256.Sum256(content), language: lang}
}

func (c *parseCache) get(key parseKey) (*types.ParsedFile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*parseEntry).file, true
}

func (c *parseCache) put(key parseKey, file *types.ParsedFile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		el.Value.(*parseEntry).file = file
		return
	}

	if c.order.Len() >= c.capacity {
		back := c.order.Back()
		if back != nil {
			c.order.Remove(back)
			delete(c.items, back.Value.(*parseEntry).key)
		}
	}
	c.items[key] = c.order.PushFront(&parseEntry{key: key, file: file})
}

func (c *parseCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
