// Package rectindex 回答"给定点被多少个矩形包含"的重复查询。
// 提供三种策略：可持久化线段树离线索引、二维离散化计数表与线性扫描，三者结果一致。
package rectindex

import (
	"strings"

	"github.com/wyfcoding/rectcount/geometry"
	"github.com/wyfcoding/rectcount/xerrors"
)

// Strategy 计数策略名称。
type Strategy string

const (
	StrategyPersistent Strategy = "persistent"
	StrategyTable      Strategy = "table"
	StrategyLinear     Strategy = "linear"
)

// Strategies 返回所有支持的策略。
func Strategies() []Strategy {
	return []Strategy{StrategyPersistent, StrategyTable, StrategyLinear}
}

// ParseStrategy 解析策略名称 (忽略大小写与首尾空白)。
func ParseStrategy(s string) (Strategy, error) {
	st := Strategy(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Strategies() {
		if st == known {
			return st, nil
		}
	}
	return "", xerrors.ErrUnknownStrategy.Derive("strategy %q, supported: persistent, table, linear", s)
}

// Counter 是构建完成后只读的计数器，Count 可被并发调用。
type Counter interface {
	Count(p geometry.Point) int
	Name() string
	Len() int
}

// New 按策略构建计数器。
func New(strategy Strategy, rects []geometry.Rectangle) (Counter, error) {
	var (
		c   Counter
		err error
	)
	switch strategy {
	case StrategyPersistent:
		c, err = NewPersistentIndex(rects)
	case StrategyTable:
		c, err = NewStaticTable(rects)
	case StrategyLinear:
		c, err = NewLinearScan(rects)
	default:
		return nil, xerrors.ErrUnknownStrategy.Derive("strategy %q, supported: persistent, table, linear", strategy)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
