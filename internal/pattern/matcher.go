package pattern

import (
	"container/list"
	"crypto/sha256"
	"strings"
	"sync"

	"github.com/Squareczm/DocumentationTool/internal/model"
)

// DefaultMemoSize bounds the number of documents remembered by a KeywordMatcher.
const DefaultMemoSize = 256

// KeywordMatcher counts keyword occurrences per rule. Keywords match as exact,
// case-sensitive substrings, which also covers CJK text without segmentation.
// Results for identical content are memoized in a bounded LRU.
type KeywordMatcher struct {
	memo  *scanMemo
	rules []model.ClassificationRule
}

// NewMatcher creates a matcher over rules with a memo of memoSize entries.
// A memoSize of zero disables the memo.
func NewMatcher(rules []model.ClassificationRule, memoSize int) *KeywordMatcher {
	m := &KeywordMatcher{rules: rules}
	if memoSize > 0 {
		m.memo = newScanMemo(memoSize)
	}
	return m
}

// Scan returns, for every rule with at least one hit, the number of distinct
// keywords that occur in content.
func (m *KeywordMatcher) Scan(content string) Hits {
	if content == "" {
		return Hits{}
	}

	var key [sha256.Size]byte
	if m.memo != nil {
		key = sha256.Sum256([]byte(content))
		if hits, ok := m.memo.get(key); ok {
			return hits
		}
	}

	hits := make(Hits)
	for _, rule := range m.rules {
		if n := CountKeywords(content, rule.Keywords); n > 0 {
			hits[rule.Category] = n
		}
	}

	if m.memo != nil {
		m.memo.put(key, hits)
	}
	return hits.clone()
}

// CountKeywords returns how many of keywords occur in content.
func CountKeywords(content string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(content, kw) {
			n++
		}
	}
	return n
}

func (h Hits) clone() Hits {
	out := make(Hits, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

type memoEntry struct {
	hits Hits
	key  [sha256.Size]byte
}

type scanMemo struct {
	entries map[[sha256.Size]byte]*list.Element
	order   *list.List
	size    int
	mu      sync.Mutex
}

func newScanMemo(size int) *scanMemo {
	return &scanMemo{
		entries: make(map[[sha256.Size]byte]*list.Element, size),
		order:   list.New(),
		size:    size,
	}
}

func (c *scanMemo) get(key [sha256.Size]byte) (Hits, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	entry, _ := el.Value.(*memoEntry)
	return entry.hits.clone(), true
}

func (c *scanMemo) put(key [sha256.Size]byte, hits Hits) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&memoEntry{key: key, hits: hits.clone()})

	for c.order.Len() > c.size {
		oldest := c.order.Back()
		entry, _ := oldest.Value.(*memoEntry)
		delete(c.entries, entry.key)
		c.order.Remove(oldest)
	}
}

func (c *scanMemo) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
