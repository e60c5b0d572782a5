package yakjson

import (
	"runtime"
	"sync/atomic"
	"unsafe"
)

// maxSlots 最大 slot 数量（覆盖常见 GOMAXPROCS）
const maxSlots = 256

// counter 低竞争分片计数器
//
// 利用不同 goroutine 栈地址天然分散在不同内存页的特性，
// 栈变量地址右移 + bitmask 映射到不同 cache line 上的 slot，
// 减少并发解析时的跨核 cache 争用。按实例持有，无全局状态。
type counter struct {
	slots [maxSlots]counterSlot
	mask  int
}

type counterSlot struct {
	n atomic.Int64
	_ [56]byte // cache line padding (64 - 8)
}

// newCounter 创建分片计数器
//
// slot 数向上取 2 的幂，低核环境保底 8 个 slot，
// 避免 2-4 vCPU 下栈地址哈希冲突率过高。
func newCounter() *counter {
	n := runtime.GOMAXPROCS(0)
	sz := 1
	for sz < n {
		sz *= 2
	}
	if sz < 8 {
		sz = 8
	}
	if sz > maxSlots {
		sz = maxSlots
	}
	return &counter{mask: sz - 1}
}

// add 原子加法（per-goroutine 栈地址分散）
//
//go:nosplit
func (c *counter) add(delta int64) {
	var x uintptr
	// 右移 13 位: goroutine 最小栈 8KB = 2^13
	id := int(uintptr(unsafe.Pointer(&x)) >> 13)
	c.slots[id&c.mask].n.Add(delta)
}

// read 读取所有 slot 的累计值
func (c *counter) read() int64 {
	var sum int64
	n := c.mask + 1
	for i := 0; i < n; i++ {
		sum += c.slots[i].n.Load()
	}
	return sum
}

// LineStats LineParser 的累计计数快照
type LineStats struct {
	Lines    int64 // 已解析的记录数（含失败）
	Bytes    int64 // 已解析的字节数
	Failures int64 // 解析失败的记录数
}

// CacheStats DocCache 的累计计数快照
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}
