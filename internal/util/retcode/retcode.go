package retcode

// 业务码沿用旧版约定：1 成功，负数为错误
const (
	SUCCESS       = 1
	INVALID       = -1
	DB_READ_ERROR = -3
	NOT_EXISTS    = -8
	PARAM_INVALID = -995
	EXCEPTION     = -999
)

type CodeInfo struct {
	Code    int
	Message string
}

func All() map[string]CodeInfo {
	return map[string]CodeInfo{
		"SUCCESS":       {SUCCESS, "success"},
		"INVALID":       {INVALID, "invalid operation"},
		"DB_READ_ERROR": {DB_READ_ERROR, "navigation store unavailable"},
		"NOT_EXISTS":    {NOT_EXISTS, "not found"},
		"PARAM_INVALID": {PARAM_INVALID, "invalid parameter"},
		"EXCEPTION":     {EXCEPTION, "internal error"},
	}
}
