//go:build wireinject

package ioc

import (
	"time"

	evt "gitee.com/flycash/rental-notification/internal/event/notification"
	"gitee.com/flycash/rental-notification/internal/ioc"
	"gitee.com/flycash/rental-notification/internal/pkg/idempotent"
	"gitee.com/flycash/rental-notification/internal/repository"
	"gitee.com/flycash/rental-notification/internal/repository/cache/local"
	"gitee.com/flycash/rental-notification/internal/repository/dao"
	"gitee.com/flycash/rental-notification/internal/service/dispatcher"
	"gitee.com/flycash/rental-notification/internal/service/preference"
	"gitee.com/flycash/rental-notification/internal/service/scheduler"
	templatesvc "gitee.com/flycash/rental-notification/internal/service/template"

	mq "github.com/ecodeclub/mq-api"
	"github.com/google/wire"
	"github.com/meoying/dlock-go"
	"github.com/sony/sonyflake"
)

var (
	// BaseSet 基础设施
	BaseSet = wire.NewSet(
		ioc.InitDB,
		ioc.InitRedisClient,
		ioc.InitDistributedLock,
		ioc.InitIdempotencyService,
		ioc.InitIDGenerator,
		ioc.InitMQ,
		ioc.InitEmailConfig,
		ioc.InitEmailClient,
		ioc.InitSMSClient,
		ioc.InitPushClient,
	)

	repositorySet = wire.NewSet(
		dao.NewNotificationDAO,
		dao.NewScheduledEntryDAO,
		dao.NewTemplateDAO,
		dao.NewPreferenceDAO,
		dao.NewDeviceTokenDAO,
		dao.NewInboxDAO,
		dao.NewUserContactDAO,

		repository.NewNotificationRepository,
		repository.NewScheduledEntryRepository,
		repository.NewPreferenceRepository,
		repository.NewDeviceTokenRepository,
		repository.NewInboxRepository,
		repository.NewUserContactDirectory,
		newTemplateRepository,
	)

	serviceSet = wire.NewSet(
		templatesvc.NewService,
		preference.NewResolver,
		newEventProducer,
		dispatcher.NewDispatcher,
		newScheduler,
	)
)

// newTemplateRepository 模板仓储套一层本地缓存
func newTemplateRepository(d dao.TemplateDAO) repository.TemplateRepository {
	const expiration = 5 * time.Minute
	return local.NewTemplateRepository(repository.NewTemplateRepository(d), expiration)
}

func newEventProducer(q mq.MQ) evt.LifecycleEventProducer {
	producer, err := evt.NewLifecycleEventProducer(q)
	if err != nil {
		panic(err)
	}
	return producer
}

func newScheduler(
	notificationRepo repository.NotificationRepository,
	entryRepo repository.ScheduledEntryRepository,
	disp dispatcher.Dispatcher,
	idGenerator *sonyflake.Sonyflake,
	idempotencySvc idempotent.IdempotencyService,
	dclient dlock.Client,
) scheduler.Scheduler {
	const sweepInterval = 10 * time.Second
	return scheduler.NewScheduler(notificationRepo, entryRepo, disp,
		idGenerator, idempotencySvc, dclient, sweepInterval)
}

func InitApp() *ioc.App {
	wire.Build(
		BaseSet,
		repositorySet,
		serviceSet,

		ioc.InitChannelRegistry,

		wire.Struct(new(ioc.App), "*"),
	)
	return new(ioc.App)
}
