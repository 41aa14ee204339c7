// Package cache 提供了基于 BigCache 的查询结果本地缓存。
package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/allegro/bigcache/v3" // 导入高性能本地缓存库

	"github.com/wyfcoding/rectcount/geometry"
)

// CountCache 以 (索引代号, 查询点) 为键缓存包含计数。
// 调用方在每次发布新索引时使用新的代号，旧索引写入的条目不会再被读取。
type CountCache struct {
	cache *bigcache.BigCache // 底层的BigCache实例
}

// NewCountCache 创建并返回一个新的 CountCache 实例。
// ttl: 缓存项的全局过期时间。maxMB: 缓存的最大容量（单位MB），0 表示不限制。
func NewCountCache(ttl time.Duration, maxMB int) (*CountCache, error) {
	config := bigcache.DefaultConfig(ttl)
	config.HardMaxCacheSize = maxMB
	config.CleanWindow = 5 * time.Minute // 垃圾回收周期，BigCache会在此周期内清理过期项。
	config.Verbose = false

	cache, err := bigcache.New(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("初始化 bigcache 失败: %w", err)
	}

	return &CountCache{cache: cache}, nil
}

func key(generation uint64, p geometry.Point) string {
	buf := make([]byte, 0, 32)
	buf = strconv.AppendUint(buf, generation, 10)
	buf = append(buf, '|')
	buf = strconv.AppendInt(buf, int64(p.X), 10)
	buf = append(buf, ':')
	buf = strconv.AppendInt(buf, int64(p.Y), 10)
	return string(buf)
}

// Get 返回缓存的计数，未命中时 ok 为 false。
func (c *CountCache) Get(generation uint64, p geometry.Point) (count int, ok bool) {
	data, err := c.cache.Get(key(generation, p))
	if err != nil || len(data) != 8 {
		return 0, false
	}
	return int(int64(binary.BigEndian.Uint64(data))), true
}

// Set 写入计数，值固定编码为 8 字节。
func (c *CountCache) Set(generation uint64, p geometry.Point, count int) error {
	var data [8]byte
	binary.BigEndian.PutUint64(data[:], uint64(int64(count)))
	return c.cache.Set(key(generation, p), data[:])
}

// Reset 清空所有条目，在索引切换后调用以尽快释放旧代号占用的空间。
func (c *CountCache) Reset() error {
	if err := c.cache.Reset(); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return err
	}
	return nil
}

// Len 返回当前缓存条目数。
func (c *CountCache) Len() int {
	return c.cache.Len()
}

// Close 关闭BigCache实例，释放其占用的资源。
func (c *CountCache) Close() error {
	return c.cache.Close()
}
