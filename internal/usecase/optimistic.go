package usecase

import "context"

// Optimistic はローカル反映→リモート呼び出し→失敗なら元に戻す、の共通処理。
// 注文作成には使わない（保存確定前に「注文済み」を見せない）
func Optimistic(ctx context.Context, apply func(), remote func(ctx context.Context) error, revert func()) error {
	apply()
	if err := remote(ctx); err != nil {
		revert()
		return err
	}
	return nil
}
