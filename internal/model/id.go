package model

import "github.com/google/uuid"

// IsValidID はidがハイフン区切り36文字の正規形式のUUIDであればtrueを返す。
// urn:uuid: 接頭辞や波括弧付きの形式はPostgreSQLのuuid型が受け付けないため拒否する。
func IsValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
