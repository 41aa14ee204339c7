package xerrors

// 业务错误码。
const (
	CodeInvalidRectangle  = 400101
	CodeUnknownStrategy   = 400102
	CodeUnsupportedFormat = 400103
	CodeEmptyBatch        = 400104
	CodeBatchTooLarge     = 400105
	CodeInvalidPoint      = 400106
	CodeInvalidRequest    = 400107
	CodeObjectNotFound    = 404101
	CodeRateLimited       = 429101
	CodeIndexNotReady     = 503101
	CodeSourceUnavailable = 500101
)

// 哨兵错误仅用于 errors.Is 匹配与 Derive 派生，不要直接修改其字段。
var (
	// ErrInvalidRectangle 矩形边界退化或倒置。
	ErrInvalidRectangle = New(ErrInvalidArg, CodeInvalidRectangle, "invalid rectangle", "lower_left must be strictly below and left of upper_right", nil)
	// ErrUnknownStrategy 未知的计数策略。
	ErrUnknownStrategy = New(ErrInvalidArg, CodeUnknownStrategy, "unknown strategy", "supported strategies: persistent, table, linear", nil)
	// ErrUnsupportedFormat 不支持的数据集格式。
	ErrUnsupportedFormat = New(ErrInvalidArg, CodeUnsupportedFormat, "unsupported dataset format", "supported formats: json, csv, yaml", nil)
	// ErrEmptyBatch 批量查询点集为空。
	ErrEmptyBatch = New(ErrInvalidArg, CodeEmptyBatch, "empty batch", "batch must contain at least one point", nil)
	// ErrBatchTooLarge 批量查询点数超过上限。
	ErrBatchTooLarge = New(ErrInvalidArg, CodeBatchTooLarge, "batch too large", "reduce the number of points per request", nil)
	// ErrInvalidPoint 查询点参数非法。
	ErrInvalidPoint = New(ErrInvalidArg, CodeInvalidPoint, "invalid point", "x and y must be integers", nil)
	// ErrInvalidRequest 请求体无法解析。
	ErrInvalidRequest = New(ErrInvalidArg, CodeInvalidRequest, "invalid request", "", nil)
	// ErrObjectNotFound 对象存储中不存在指定对象。
	ErrObjectNotFound = New(ErrNotFound, CodeObjectNotFound, "object not found", "", nil)
	// ErrRateLimited 请求超过限流阈值。
	ErrRateLimited = New(ErrLimitExceeded, CodeRateLimited, "too many requests", "rate limit exceeded", nil)
	// ErrIndexNotReady 索引尚未构建完成。
	ErrIndexNotReady = New(ErrUnavailable, CodeIndexNotReady, "index not ready", "no index has been published yet", nil)
	// ErrSourceUnavailable 数据源读取失败。
	ErrSourceUnavailable = New(ErrInternal, CodeSourceUnavailable, "dataset source unavailable", "", nil)
)
