// Package storage 提供了对象存储的统一抽象，用于读取和发布矩形数据集。
package storage

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/wyfcoding/rectcount/xerrors"
)

// Storage 定义了对象存储的通用接口，支持多驱动扩展。
type Storage interface {
	// Upload 简单上传文件
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error

	// Download 下载文件
	Download(ctx context.Context, objectName string) (io.ReadCloser, error)

	// Exists 检查对象是否存在
	Exists(ctx context.Context, objectName string) (bool, error)

	// Delete 删除文件
	Delete(ctx context.Context, objectName string) error
}

// MemoryStorage 是基于内存的 Storage 实现，用于本地运行与测试。
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStorage 创建空的内存存储。
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string][]byte)}
}

func (m *MemoryStorage) Upload(ctx context.Context, objectName string, reader io.Reader, _ int64, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.objects[objectName] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Download(ctx context.Context, objectName string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	data, ok := m.objects[objectName]
	m.mu.RUnlock()
	if !ok {
		return nil, xerrors.ErrObjectNotFound.Derive("%s", objectName)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryStorage) Exists(ctx context.Context, objectName string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[objectName]
	return ok, nil
}

func (m *MemoryStorage) Delete(ctx context.Context, objectName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.objects, objectName)
	m.mu.Unlock()
	return nil
}
