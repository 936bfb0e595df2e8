package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gitee.com/flycash/rental-notification/internal/domain"
	"gitee.com/flycash/rental-notification/internal/errs"
	evt "gitee.com/flycash/rental-notification/internal/event/notification"
	"gitee.com/flycash/rental-notification/internal/repository"
	"gitee.com/flycash/rental-notification/internal/service/channel"
	"gitee.com/flycash/rental-notification/internal/service/preference"
	tmplsvc "gitee.com/flycash/rental-notification/internal/service/template"

	"github.com/gotomicro/ego/core/elog"
	"github.com/hashicorp/go-multierror"
	"github.com/sony/sonyflake"
	"golang.org/x/sync/errgroup"
)

const defaultBatchConcurrency = 10

// Dispatcher 通知分发编排器
// 负责校验、渠道解析、并发扇出、结果聚合与落库，是整个引擎的入口
//
//go:generate mockgen -source=./dispatcher.go -destination=./mocks/dispatcher.mock.go -package=dispatchermocks -typed Dispatcher
type Dispatcher interface {
	// Send 同步发送一条通知，等待所有渠道出结果
	Send(ctx context.Context, notification domain.Notification) (domain.SendResponse, error)

	// BatchSend 并发发送一批通知，单条失败不影响其他条目
	BatchSend(ctx context.Context, notifications []domain.Notification) (domain.BatchSendResponse, error)

	// DispatchExisting 发送一条已落库的通知，调度器到期触发时走这里
	DispatchExisting(ctx context.Context, notification domain.Notification) (domain.SendResponse, error)

	// GetByID 查询一条通知及其各渠道结果
	GetByID(ctx context.Context, id uint64) (domain.Notification, error)

	// GetStatistics 按状态/类型聚合统计，userID 为 0 时统计全量
	GetStatistics(ctx context.Context, userID int64) (domain.DeliveryStatistics, error)
}

// dispatcher 通知分发编排器实现
type dispatcher struct {
	repo             repository.NotificationRepository
	registry         *channel.Registry
	resolver         preference.Resolver
	templateSvc      tmplsvc.Service
	idGenerator      *sonyflake.Sonyflake
	eventProducer    evt.LifecycleEventProducer
	batchConcurrency int
	logger           *elog.Component
}

// NewDispatcher 创建通知分发编排器
func NewDispatcher(
	repo repository.NotificationRepository,
	registry *channel.Registry,
	resolver preference.Resolver,
	templateSvc tmplsvc.Service,
	idGenerator *sonyflake.Sonyflake,
	eventProducer evt.LifecycleEventProducer,
) Dispatcher {
	return &dispatcher{
		repo:             repo,
		registry:         registry,
		resolver:         resolver,
		templateSvc:      templateSvc,
		idGenerator:      idGenerator,
		eventProducer:    eventProducer,
		batchConcurrency: defaultBatchConcurrency,
		logger:           elog.DefaultLogger,
	}
}

func (d *dispatcher) Send(ctx context.Context, notification domain.Notification) (domain.SendResponse, error) {
	prepared, err := d.prepare(ctx, notification)
	if err != nil {
		return domain.SendResponse{}, err
	}

	// 过期通知不落库也不触碰任何渠道
	if prepared.IsExpired(time.Now()) {
		return domain.SendResponse{}, fmt.Errorf("%w: id=%d", errs.ErrNotificationExpired, prepared.ID)
	}

	prepared.Status = domain.SendStatusPending
	created, err := d.repo.Create(ctx, prepared)
	if err != nil {
		return domain.SendResponse{}, fmt.Errorf("%w: %w", errs.ErrCreateNotificationFailed, err)
	}

	return d.dispatch(ctx, created)
}

func (d *dispatcher) BatchSend(ctx context.Context, notifications []domain.Notification) (domain.BatchSendResponse, error) {
	if len(notifications) == 0 {
		return domain.BatchSendResponse{}, fmt.Errorf("%w: 通知列表不能为空", errs.ErrInvalidParameter)
	}

	responses := make([]domain.SendResponse, len(notifications))
	var eg errgroup.Group
	eg.SetLimit(d.batchConcurrency)
	for i := range notifications {
		eg.Go(func() error {
			resp, err := d.Send(ctx, notifications[i])
			if err != nil {
				// 单条失败折叠进响应，不中断同批其他通知。
				// 校验阶段就失败的条目还没有生成ID，NotificationID 为 0，
				// 调用方按 Results 下标与入参对位
				resp = domain.SendResponse{
					NotificationID: notifications[i].ID,
					Status:         domain.SendStatusFailed,
					Errs:           []error{err},
				}
			}
			responses[i] = resp
			return nil
		})
	}
	_ = eg.Wait()

	result := domain.BatchSendResponse{
		Results:    responses,
		TotalCount: len(responses),
	}
	for i := range responses {
		if responses[i].Success {
			result.SuccessCount++
		}
	}
	return result, nil
}

func (d *dispatcher) DispatchExisting(ctx context.Context, notification domain.Notification) (domain.SendResponse, error) {
	if notification.Status.IsTerminal() {
		return domain.SendResponse{}, fmt.Errorf("%w: 通知已是终态 %s", errs.ErrInvalidParameter, notification.Status)
	}
	if notification.IsExpired(time.Now()) {
		notification.Status = domain.SendStatusFailed
		if err := d.repo.UpdateDispatchResult(ctx, notification); err != nil {
			d.logger.Error("标记过期通知失败",
				elog.Any("notificationID", notification.ID),
				elog.FieldErr(err))
		}
		return domain.SendResponse{}, fmt.Errorf("%w: id=%d", errs.ErrNotificationExpired, notification.ID)
	}
	return d.dispatch(ctx, notification)
}

func (d *dispatcher) GetByID(ctx context.Context, id uint64) (domain.Notification, error) {
	return d.repo.GetByID(ctx, id)
}

func (d *dispatcher) GetStatistics(ctx context.Context, userID int64) (domain.DeliveryStatistics, error) {
	return d.repo.GetStatistics(ctx, userID)
}

// prepare 渲染模板、校验参数并补齐通知ID
func (d *dispatcher) prepare(ctx context.Context, notification domain.Notification) (domain.Notification, error) {
	if notification.TemplateName != "" {
		rendered, err := d.templateSvc.Render(ctx, notification.TemplateName, notification.Data)
		if err != nil {
			return domain.Notification{}, err
		}
		notification.Title = rendered.Title
		notification.Message = rendered.Body
		// 请求未显式指定时采用模板默认值，
		// 否则种子里的紧急模板会被兜底的 NORMAL 降级
		if notification.Priority == "" {
			notification.Priority = rendered.DefaultPriority
		}
		if len(notification.Channels) == 0 {
			notification.Channels = rendered.DefaultChannels
		}
	}

	if err := notification.Validate(); err != nil {
		return domain.Notification{}, err
	}

	if notification.Priority == "" {
		notification.Priority = domain.PriorityNormal
	}

	if notification.ID == 0 {
		id, err := d.idGenerator.NextID()
		if err != nil {
			return domain.Notification{}, fmt.Errorf("%w: %w", errs.ErrNotificationIDGenerateFailed, err)
		}
		notification.ID = id
	}
	return notification, nil
}

// dispatch 并发扇出到各渠道，聚合结果后单次写回存储
func (d *dispatcher) dispatch(ctx context.Context, notification domain.Notification) (domain.SendResponse, error) {
	channels, err := d.resolver.ResolveChannels(ctx, notification)
	if err != nil {
		notification.Status = domain.SendStatusFailed
		if updateErr := d.repo.UpdateDispatchResult(ctx, notification); updateErr != nil {
			d.logger.Error("写回通知结果失败",
				elog.Any("notificationID", notification.ID),
				elog.FieldErr(updateErr))
		}
		return domain.SendResponse{}, err
	}

	results := d.fanOut(ctx, notification, channels)

	response := d.aggregate(notification, results)
	notification.Status = response.Status
	notification.ChannelResults = response.Results
	if response.Status != domain.SendStatusFailed {
		notification.DeliveredAt = time.Now()
	}
	if err := d.repo.UpdateDispatchResult(ctx, notification); err != nil {
		return domain.SendResponse{}, fmt.Errorf("写回通知结果失败: %w", err)
	}

	d.produceEvent(ctx, notification)
	return response, nil
}

// fanOut 各渠道互不等待，一个渠道慢不拖累其他渠道
func (d *dispatcher) fanOut(ctx context.Context, notification domain.Notification, channels []domain.Channel) map[domain.Channel]domain.ChannelResult {
	var mu sync.Mutex
	results := make(map[domain.Channel]domain.ChannelResult, len(channels))

	var wg sync.WaitGroup
	for i := range channels {
		name := channels[i]
		wg.Add(1)
		go func() {
			defer wg.Done()

			ch, err := d.registry.Get(name)
			if err != nil {
				mu.Lock()
				results[name] = domain.ChannelResult{
					Channel: name,
					Success: false,
					Error:   err.Error(),
				}
				mu.Unlock()
				return
			}

			result, err := ch.Send(ctx, notification)
			if err != nil {
				result = domain.ChannelResult{
					Channel: name,
					Success: false,
					Error:   err.Error(),
				}
			}
			mu.Lock()
			results[name] = result
			mu.Unlock()
		}()
	}
	wg.Wait()
	return results
}

// aggregate 全部成功为 DELIVERED，部分成功为 PARTIALLY_DELIVERED，全部失败为 FAILED
func (d *dispatcher) aggregate(notification domain.Notification, results map[domain.Channel]domain.ChannelResult) domain.SendResponse {
	var succeeded int
	var merr *multierror.Error
	for name, result := range results {
		if result.Success {
			succeeded++
			continue
		}
		merr = multierror.Append(merr,
			fmt.Errorf("%w: channel=%s: %s", errs.ErrChannelSendFailed, name, result.Error))
	}

	response := domain.SendResponse{
		NotificationID: notification.ID,
		Results:        results,
	}
	switch {
	case succeeded == len(results) && len(results) > 0:
		response.Status = domain.SendStatusDelivered
		response.Success = true
	case succeeded > 0:
		response.Status = domain.SendStatusPartialDelivered
	default:
		response.Status = domain.SendStatusFailed
		merr = multierror.Append(merr, errs.ErrAllChannelsFailed)
	}
	if merr != nil {
		response.Errs = merr.WrappedErrors()
	}
	return response
}

// produceEvent 生命周期事件尽力投递，失败只记日志不影响发送结果
func (d *dispatcher) produceEvent(ctx context.Context, notification domain.Notification) {
	if d.eventProducer == nil {
		return
	}
	err := d.eventProducer.Produce(ctx, evt.Event{
		NotificationID: notification.ID,
		UserID:         notification.UserID,
		Type:           notification.Type,
		Status:         notification.Status,
		Results:        notification.ChannelResults,
	})
	if err != nil {
		d.logger.Warn("投递生命周期事件失败",
			elog.Any("notificationID", notification.ID),
			elog.FieldErr(err))
	}
}
