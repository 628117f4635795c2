package repository

import "context"

// サイト設定のJSONをそのまま出し入れする。型付けはsettingsパッケージ側
type SettingsRepository interface {
	//未保存ならnil
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, version int, payload []byte) error
}
