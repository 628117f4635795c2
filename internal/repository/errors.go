package repository

import "errors"

var ErrNotFound = errors.New("not found")

// DBに届かない（接続失敗・タイムアウト）。再試行してよい
var ErrUnavailable = errors.New("storage unavailable")

// 一意制約違反（同じ決済IDの注文など）
var ErrDuplicate = errors.New("duplicate")
