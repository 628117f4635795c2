package repository

import "context"

// TxRepos は同じトランザクションに乗ったリポジトリ
// ステータス変更と監査ログを一緒にコミットするときに使う
// （注文作成は決済と補償で整合を取るので使わない）
type TxRepos interface {
	Orders() OrderRepository
	AuditLogs() AuditLogRepository
}

// fn が error を返せばロールバック
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
