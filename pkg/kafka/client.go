// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fanwall-go/internal/config"
	"fanwall-go/pkg/log"
	"fanwall-go/pkg/tasks"

	"github.com/go-redis/redis/v8"
	kafkago "github.com/segmentio/kafka-go"
)

// ResultHandler 定义了结果消费循环的处理方，解耦消费者与具体的调和实现。
type ResultHandler interface {
	HandleResult(ctx context.Context, result tasks.ProcessingResult) error
	HandleProgress(ctx context.Context, event tasks.ProgressEvent) error
}

// Producer 负责向任务主题发布处理任务与取消请求。
type Producer struct {
	writer         *kafkago.Writer
	functionPrefix string
}

// NewProducer 初始化 Kafka 生产者。
func NewProducer(cfg config.KafkaConfig) *Producer {
	w := &kafkago.Writer{
		Addr:     kafkago.TCP(cfg.Brokers),
		Topic:    cfg.JobsTopic,
		Balancer: &kafkago.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
	return &Producer{writer: w, functionPrefix: cfg.FunctionPrefix}
}

// SubmitJob 将一个处理任务发布到任务主题。
// 消息 key 使用函数前缀 + 上传 ID，保证同一上传的任务与取消请求落在同一分区。
func (p *Producer) SubmitJob(ctx context.Context, job tasks.ProcessingJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(p.functionPrefix + job.UploadID),
		Value: payload,
	})
}

// CancelJob 请求取消某个在途处理任务。取消是协作式的，由外部函数决定是否尊重。
func (p *Producer) CancelJob(ctx context.Context, uploadID, eventID string) error {
	return p.SubmitJob(ctx, tasks.ProcessingJob{
		UploadID: uploadID,
		EventID:  eventID,
		Cancel:   true,
	})
}

// Close 关闭底层 writer。
func (p *Producer) Close() error {
	return p.writer.Close()
}

// StartResultConsumer 启动结果主题的消费循环，把终态结果与进度事件交给 handler。
// 处理失败时用 Redis 计数，达到 3 次后提交 offset 终止重试（与任务侧的语义一致）。
func StartResultConsumer(cfg config.KafkaConfig, rdb *redis.Client, handler ResultHandler) {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.ResultsTopic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	log.Infof("Kafka 结果消费者已启动，正在监听主题 '%s'", cfg.ResultsTopic)

	for {
		m, err := r.FetchMessage(context.Background())
		if err != nil {
			log.Error("从 Kafka 读取消息失败", err)
			break
		}

		var envelope tasks.ResultEnvelope
		if err := json.Unmarshal(m.Value, &envelope); err != nil {
			log.Errorf("无法解析结果消息: %v, value: %s", err, string(m.Value))
			// 消息格式错误，直接提交，避免阻塞队列
			if err := r.CommitMessages(context.Background(), m); err != nil {
				log.Errorf("提交错误消息失败: %v", err)
			}
			continue
		}

		switch envelope.Kind {
		case tasks.KindProgress:
			if envelope.Progress == nil {
				log.Warnf("进度消息缺少 progress 字段, offset: %d", m.Offset)
			} else if err := handler.HandleProgress(context.Background(), *envelope.Progress); err != nil {
				// 进度是尽力而为的，不重试
				log.Warnf("记录进度事件失败, uploadId: %s, error: %v", envelope.Progress.UploadID, err)
			}
			if err := r.CommitMessages(context.Background(), m); err != nil {
				log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
			}

		case tasks.KindResult:
			if envelope.Result == nil {
				log.Warnf("结果消息缺少 result 字段, offset: %d", m.Offset)
				_ = r.CommitMessages(context.Background(), m)
				continue
			}
			result := *envelope.Result
			if err := handler.HandleResult(context.Background(), result); err != nil {
				log.Errorf("调和处理结果失败: uploadId=%s, error: %v", result.UploadID, err)
				// 使用 Redis 计数失败次数，达到阈值后提交 offset 终止重试
				attemptsKey := fmt.Sprintf("kafka:attempts:%s", result.UploadID)
				attempts, incErr := rdb.Incr(context.Background(), attemptsKey).Result()
				if incErr == nil {
					_ = rdb.Expire(context.Background(), attemptsKey, 24*time.Hour).Err()
				} else {
					// Redis 异常时保守处理：不提交 offset，让 Kafka 重试
					continue
				}
				if attempts >= 3 {
					log.Errorf("结果调和多次失败(>=3)，提交 offset 终止重试: uploadId=%s", result.UploadID)
					if err := r.CommitMessages(context.Background(), m); err != nil {
						log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
					}
				}
			} else {
				_ = rdb.Del(context.Background(), fmt.Sprintf("kafka:attempts:%s", result.UploadID)).Err()
				if err := r.CommitMessages(context.Background(), m); err != nil {
					log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
				}
			}

		default:
			log.Warnf("未知的结果消息种类 '%s', offset: %d", envelope.Kind, m.Offset)
			_ = r.CommitMessages(context.Background(), m)
		}
	}

	if err := r.Close(); err != nil {
		log.Fatalf("关闭 Kafka 消费者失败: %v", err)
	}
}
