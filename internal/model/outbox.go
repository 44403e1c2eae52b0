package model

import (
	"encoding/json"
	"time"
)

const (
	OutboxPending int8 = 0
	OutboxSent    int8 = 1
	OutboxFailed  int8 = 2
)

// DeleteOutbox 删除事件 outbox 表，与软删除在同一事务写入，由 relayer 投递到 kafka
type DeleteOutbox struct {
	ID          uint64      `gorm:"primaryKey"`
	EventType   string      `gorm:"size:32;not null"` // question_deleted / answer_deleted
	ContentType ContentType `gorm:"size:16;not null"`
	ContentID   uint64      `gorm:"not null"`
	DeletedByID uint64      `gorm:"not null"`
	Payload     string      `gorm:"type:text;not null"`
	Status      int8        `gorm:"not null;default:0;index;comment:'0=pending,1=sent,2=failed'"`
	Retry       int         `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (DeleteOutbox) TableName() string { return "delete_outbox" }

type deleteEvent struct {
	EventTime   string      `json:"event_time"`
	ContentType ContentType `json:"content_type"`
	ContentID   uint64      `json:"content_id"`
	DeletedBy   uint64      `json:"deleted_by"`
}

// NewDeleteOutbox 由一条删除历史生成待投递事件
func NewDeleteOutbox(h DeleteHistory) DeleteOutbox {
	event := "question_deleted"
	if h.ContentType == ContentTypeAnswer {
		event = "answer_deleted"
	}
	payload, _ := json.Marshal(deleteEvent{
		EventTime:   h.CreatedAt.UTC().Format(time.RFC3339Nano),
		ContentType: h.ContentType,
		ContentID:   h.ContentID,
		DeletedBy:   h.DeletedByID,
	})
	return DeleteOutbox{
		EventType:   event,
		ContentType: h.ContentType,
		ContentID:   h.ContentID,
		DeletedByID: h.DeletedByID,
		Payload:     string(payload),
		Status:      OutboxPending,
	}
}
