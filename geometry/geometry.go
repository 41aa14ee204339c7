// Package geometry 定义了整数坐标平面上的点与轴对齐矩形，以及半开区间包含判定。
package geometry

import (
	"fmt"

	"github.com/wyfcoding/rectcount/xerrors"
)

// Point 表示一个整数坐标点。
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Pt 是 Point 的便捷构造函数。
func Pt(x, y int) Point {
	return Point{X: x, Y: y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Rectangle 表示一个轴对齐矩形，覆盖区域为 [LowerLeft.X, UpperRight.X) × [LowerLeft.Y, UpperRight.Y)。
type Rectangle struct {
	LowerLeft  Point `json:"lower_left"  yaml:"lower_left"`
	UpperRight Point `json:"upper_right" yaml:"upper_right"`
}

// Rect 按 (x1, y1) 左下角与 (x2, y2) 右上角构造矩形，不做校验。
func Rect(x1, y1, x2, y2 int) Rectangle {
	return Rectangle{LowerLeft: Point{X: x1, Y: y1}, UpperRight: Point{X: x2, Y: y2}}
}

func (r Rectangle) String() string {
	return fmt.Sprintf("%s-%s", r.LowerLeft, r.UpperRight)
}

// Contains 判断点是否落在矩形内：下边界与左边界包含，上边界与右边界不包含。
func (r Rectangle) Contains(p Point) bool {
	return p.X >= r.LowerLeft.X && p.X < r.UpperRight.X &&
		p.Y >= r.LowerLeft.Y && p.Y < r.UpperRight.Y
}

// Validate 拒绝退化或倒置的矩形。
func (r Rectangle) Validate() error {
	if r.LowerLeft.X >= r.UpperRight.X || r.LowerLeft.Y >= r.UpperRight.Y {
		return xerrors.ErrInvalidRectangle.Derive("rectangle %s must satisfy lower_left < upper_right on both axes", r)
	}
	return nil
}

// ValidateAll 校验整个矩形集合，返回第一个非法矩形的错误，错误上下文中带有其序号。
func ValidateAll(rects []Rectangle) error {
	for i, r := range rects {
		if err := r.Validate(); err != nil {
			if xe, ok := xerrors.FromError(err); ok {
				return xe.WithContext("index", i)
			}
			return err
		}
	}
	return nil
}

// Bounds 返回矩形集合的外包矩形；集合为空时 ok 为 false。
func Bounds(rects []Rectangle) (bounds Rectangle, ok bool) {
	if len(rects) == 0 {
		return Rectangle{}, false
	}
	bounds = rects[0]
	for _, r := range rects[1:] {
		bounds.LowerLeft.X = min(bounds.LowerLeft.X, r.LowerLeft.X)
		bounds.LowerLeft.Y = min(bounds.LowerLeft.Y, r.LowerLeft.Y)
		bounds.UpperRight.X = max(bounds.UpperRight.X, r.UpperRight.X)
		bounds.UpperRight.Y = max(bounds.UpperRight.Y, r.UpperRight.Y)
	}
	return bounds, true
}
