package health

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/rectcount/storage"
)

// ObjectChecker 检查数据集对象在对象存储中可访问。
func ObjectChecker(store storage.Storage, object string) Checker {
	return func(ctx context.Context) error {
		if store == nil {
			return errors.New("object storage is not configured")
		}
		ok, err := store.Exists(ctx, object)
		if err != nil {
			return fmt.Errorf("object storage stat failed: %w", err)
		}
		if !ok {
			return fmt.Errorf("object %s not found", object)
		}
		return nil
	}
}
