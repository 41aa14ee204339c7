// Package dataset 负责矩形数据集的编解码、来源读取与生成。
package dataset

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wyfcoding/rectcount/geometry"
	"github.com/wyfcoding/rectcount/xerrors"
)

// Format 数据集文件格式。
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// ParseFormat 解析格式名称，大小写不敏感，yml 视为 yaml。
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatJSON, FormatYAML, FormatCSV:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", xerrors.ErrUnsupportedFormat.Derive("format %q", name)
	}
}

// FormatFromPath 根据扩展名推断格式。
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", xerrors.ErrUnsupportedFormat.Derive("cannot infer format of %q", path)
	}
	return ParseFormat(ext)
}

// ContentType 返回上传对象存储时使用的 MIME 类型。
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	default:
		return "text/csv"
	}
}

// Decode 从 r 中读取矩形集合并逐个校验。
func Decode(r io.Reader, format Format) ([]geometry.Rectangle, error) {
	var (
		rects []geometry.Rectangle
		err   error
	)
	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&rects)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&rects)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	case FormatCSV:
		rects, err = decodeCSV(r)
	default:
		return nil, xerrors.ErrUnsupportedFormat.Derive("format %q", format)
	}
	if err != nil {
		return nil, xerrors.WrapInternal(err, fmt.Sprintf("decode %s dataset", format))
	}
	if err := geometry.ValidateAll(rects); err != nil {
		return nil, err
	}
	return rects, nil
}

// Encode 将矩形集合写入 w。
func Encode(w io.Writer, rects []geometry.Rectangle, format Format) error {
	switch format {
	case FormatJSON:
		if rects == nil {
			rects = []geometry.Rectangle{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rects)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(rects); err != nil {
			return err
		}
		return enc.Close()
	case FormatCSV:
		return encodeCSV(w, rects)
	default:
		return xerrors.ErrUnsupportedFormat.Derive("format %q", format)
	}
}

var csvHeader = []string{"x1", "y1", "x2", "y2"}

func decodeCSV(r io.Reader) ([]geometry.Rectangle, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var rects []geometry.Rectangle
	for n := 1; ; n++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rects, nil
		}
		if err != nil {
			return nil, err
		}

		rect, err := parseRecord(record)
		if err != nil {
			// 首行非数字视为表头。
			if n == 1 {
				continue
			}
			return nil, fmt.Errorf("record %d: %w", n, err)
		}
		rects = append(rects, rect)
	}
}

func parseRecord(record []string) (geometry.Rectangle, error) {
	var v [4]int
	for i, field := range record {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return geometry.Rectangle{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		v[i] = n
	}
	return geometry.Rect(v[0], v[1], v[2], v[3]), nil
}

func encodeCSV(w io.Writer, rects []geometry.Rectangle) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rects {
		record := []string{
			strconv.Itoa(r.LowerLeft.X), strconv.Itoa(r.LowerLeft.Y),
			strconv.Itoa(r.UpperRight.X), strconv.Itoa(r.UpperRight.Y),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
