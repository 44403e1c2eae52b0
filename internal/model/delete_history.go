package model

import "time"

type ContentType string

const (
	ContentTypeQuestion ContentType = "QUESTION"
	ContentTypeAnswer   ContentType = "ANSWER"
)

// DeleteHistory 软删除审计记录，只追加
type DeleteHistory struct {
	ID          uint64      `gorm:"primaryKey" json:"id"`
	ContentType ContentType `gorm:"size:16;not null;index:idx_history_content,priority:1" json:"contentType"`
	ContentID   uint64      `gorm:"not null;index:idx_history_content,priority:2" json:"contentId"`
	DeletedByID uint64      `gorm:"not null;index" json:"deletedById"`
	DeletedBy   *User       `gorm:"foreignKey:DeletedByID" json:"deletedBy,omitempty"`
	CreatedAt   time.Time   `gorm:"not null" json:"createdAt"`
}

func (DeleteHistory) TableName() string {
	return "delete_histories"
}

func NewDeleteHistory(contentType ContentType, contentID uint64, deletedBy *User, at time.Time) DeleteHistory {
	h := DeleteHistory{
		ContentType: contentType,
		ContentID:   contentID,
		DeletedBy:   deletedBy,
		CreatedAt:   at,
	}
	if deletedBy != nil {
		h.DeletedByID = deletedBy.ID
	}
	return h
}
