package service

import (
	"context"
	"fmt"
	"time"

	"Lee_QnA/internal/config"
	"Lee_QnA/internal/metrics"
	"Lee_QnA/internal/model"
	"Lee_QnA/internal/pkg"
	"Lee_QnA/internal/repository/database"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Sender func(ctx context.Context, ob *model.DeleteOutbox) error

// OutboxRelayer 从 outbox 表读取删除事件，交给 sender 投递
type OutboxRelayer struct {
	repo      *database.OutboxRepository
	batchSize int
	interval  time.Duration
	sender    Sender
	metrics   *metrics.Metrics
	log       *logrus.Entry
}

func NewOutboxRelayer(db *gorm.DB, cfg config.KafkaConfig, sender Sender, m *metrics.Metrics, log *logrus.Entry) *OutboxRelayer {
	r := &OutboxRelayer{
		repo:      &database.OutboxRepository{DB: db},
		batchSize: cfg.RelayBatchSize,
		interval:  cfg.RelayInterval(),
		sender:    sender,
		metrics:   m,
		log:       log.WithField("component", "outbox"),
	}
	if r.batchSize <= 0 {
		r.batchSize = 200
	}
	if r.interval <= 0 {
		r.interval = time.Second
	}
	return r
}

// Run outbox启动器，ctx 取消后退出
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n, err := r.drainOnce(ctx); err != nil {
				r.log.WithError(err).WithField("sent", n).Warn("outbox drain finished with errors")
			}
		}
	}
}

// drainOnce 投递一批，单条失败只累加重试次数，不影响同批其他事件
func (r *OutboxRelayer) drainOnce(ctx context.Context) (int, error) {
	rows, err := r.repo.List(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("outbox query: %w", err)
	}

	var result *multierror.Error
	sent := 0
	for i := range rows {
		ob := rows[i]
		if err := r.sender(ctx, &ob); err != nil {
			result = multierror.Append(result, fmt.Errorf("outbox %d: %w", ob.ID, err))
			r.observe("failed")
			if uerr := r.repo.RetryUpdate(ctx, ob.ID); uerr != nil {
				result = multierror.Append(result, uerr)
			}
			continue
		}
		r.observe("sent")
		if uerr := r.repo.SuccessUpdate(ctx, ob.ID); uerr != nil {
			result = multierror.Append(result, uerr)
			continue
		}
		sent++
	}
	return sent, result.ErrorOrNil()
}

func (r *OutboxRelayer) observe(result string) {
	if r.metrics != nil {
		r.metrics.OutboxRelayed.WithLabelValues(result).Inc()
	}
}

// KafkaSender 同一内容的事件用同一个 key
func KafkaSender(p *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ob *model.DeleteOutbox) error {
		key := fmt.Sprintf("%s:%s", ob.ContentType, pkg.MakeKeyFromID(ob.ContentID))
		return p.Send(ctx, key, []byte(ob.Payload))
	}
}

// LogSender 未启用 kafka 时使用，只打印
func LogSender(log *logrus.Entry) Sender {
	return func(ctx context.Context, ob *model.DeleteOutbox) error {
		log.WithFields(logrus.Fields{
			"event":        ob.EventType,
			"content_type": ob.ContentType,
			"content_id":   ob.ContentID,
			"deleted_by":   ob.DeletedByID,
		}).Info(ob.Payload)
		return nil
	}
}
