package yakjson

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// DocCache 内容寻址的解析结果缓存
//
// 以源文本的 xxhash 为键记忆整棵解析树: 重复解析同一文档
// （配置重读、重放同一消息体等场景）直接命中。命中时校验
// 存储的源文本，哈希碰撞退化为 miss 而非错树。超出 maxDocs
// 按最久未访问淘汰。每个条目持有专属 Parser，池复用不会使
// 缓存的树失效。并发安全。
type DocCache struct {
	mu        sync.RWMutex
	docs      map[uint64]*cachedDoc
	maxDocs   int
	hits      *counter
	misses    *counter
	evictions *counter
}

type cachedDoc struct {
	src      string
	root     *Value
	p        *Parser // 专属解析器，树的生命周期随条目
	accessed int64   // UnixNano，淘汰排序用
}

// NewDocCache 创建文档缓存，maxDocs 为容量上限（<=0 取 64）
func NewDocCache(maxDocs int) *DocCache {
	if maxDocs <= 0 {
		maxDocs = 64
	}
	return &DocCache{
		docs:      make(map[uint64]*cachedDoc, maxDocs),
		maxDocs:   maxDocs,
		hits:      newCounter(),
		misses:    newCounter(),
		evictions: newCounter(),
	}
}

// Parse 解析 src，命中缓存时返回已有的树
//
// 返回的树在条目被淘汰后仍有效（树引用自己的 Parser 和源文本，
// 淘汰只是不再被缓存持有）。解析失败不缓存。
func (c *DocCache) Parse(src string) (*Value, error) {
	h := xxhash.Sum64String(src)

	c.mu.RLock()
	d, ok := c.docs[h]
	c.mu.RUnlock()
	if ok && d.src == src {
		c.hits.add(1)
		c.mu.Lock()
		d.accessed = time.Now().UnixNano()
		c.mu.Unlock()
		return d.root, nil
	}
	c.misses.add(1)

	p := new(Parser)
	v, err := p.Parse(src)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if len(c.docs) >= c.maxDocs {
		c.evictOldestLocked()
	}
	c.docs[h] = &cachedDoc{
		src:      src,
		root:     v,
		p:        p,
		accessed: time.Now().UnixNano(),
	}
	c.mu.Unlock()
	return v, nil
}

// evictOldestLocked 淘汰最久未访问的条目，调用方持有写锁
func (c *DocCache) evictOldestLocked() {
	var oldestKey uint64
	var oldest int64
	first := true
	for k, d := range c.docs {
		if first || d.accessed < oldest {
			oldestKey, oldest = k, d.accessed
			first = false
		}
	}
	if !first {
		delete(c.docs, oldestKey)
		c.evictions.add(1)
	}
}

// Len 当前缓存的文档数
func (c *DocCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

// Purge 清空缓存（已返回的树不受影响）
func (c *DocCache) Purge() {
	c.mu.Lock()
	clear(c.docs)
	c.mu.Unlock()
}

// Stats 累计计数快照
func (c *DocCache) Stats() CacheStats {
	return CacheStats{
		Hits:      c.hits.read(),
		Misses:    c.misses.read(),
		Evictions: c.evictions.read(),
	}
}
