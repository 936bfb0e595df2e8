package ioc

import (
	"time"

	"gitee.com/flycash/rental-notification/internal/pkg/retry"
	"gitee.com/flycash/rental-notification/internal/repository"
	"gitee.com/flycash/rental-notification/internal/service/channel"
	channelmetrics "gitee.com/flycash/rental-notification/internal/service/channel/metrics"
	channeltracing "gitee.com/flycash/rental-notification/internal/service/channel/tracing"
	"gitee.com/flycash/rental-notification/internal/service/provider/push"
	smsclient "gitee.com/flycash/rental-notification/internal/service/provider/sms/client"

	"github.com/gotomicro/ego/core/econf"
	"github.com/mrz1836/postmark"
)

const defaultChannelTimeout = 10 * time.Second

func InitPushClient() push.Client {
	type Config struct {
		Endpoint  string `yaml:"endpoint"`
		ServerKey string `yaml:"serverKey"`
	}
	var cfg Config
	err := econf.UnmarshalKey("push", &cfg)
	if err != nil {
		panic(err)
	}
	return push.NewHTTPClient(cfg.Endpoint, cfg.ServerKey, defaultChannelTimeout)
}

// InitChannelRegistry 组装全部渠道适配器，统一套上指标与链路追踪装饰器
func InitChannelRegistry(
	emailClient *postmark.Client,
	emailCfg EmailConfig,
	smsClient smsclient.Client,
	pushClient push.Client,
	directory *repository.UserContactDirectory,
	deviceTokens repository.DeviceTokenRepository,
	inbox repository.InboxRepository,
) *channel.Registry {
	type SMSConfig struct {
		SignName   string `yaml:"signName"`
		TemplateID string `yaml:"templateId"`
	}
	var smsCfg SMSConfig
	if err := econf.UnmarshalKey("sms", &smsCfg); err != nil {
		panic(err)
	}
	type WebhookConfig struct {
		DefaultURL string `yaml:"defaultUrl"`
		SignKey    string `yaml:"signKey"`
	}
	var webhookCfg WebhookConfig
	if err := econf.UnmarshalKey("webhook", &webhookCfg); err != nil {
		panic(err)
	}

	smsRetry, err := retry.NewRetry(retry.Config{
		Type: "exponential",
		ExponentialBackoff: &retry.ExponentialBackoffConfig{
			InitialInterval: time.Second,
			MaxInterval:     10 * time.Second,
			MaxRetries:      3,
		},
	})
	if err != nil {
		panic(err)
	}

	channels := []channel.Channel{
		channel.NewEmailChannel(emailClient, directory, emailCfg.From, defaultChannelTimeout),
		channel.NewSMSChannel(smsClient, directory, smsCfg.SignName, smsCfg.TemplateID, defaultChannelTimeout, smsRetry),
		channel.NewPushChannel(pushClient, deviceTokens, defaultChannelTimeout),
		channel.NewWebhookChannel(webhookCfg.DefaultURL, webhookCfg.SignKey, defaultChannelTimeout),
		channel.NewInAppChannel(inbox),
	}

	registry := channel.NewRegistry()
	for _, ch := range channels {
		registry.Register(channeltracing.NewChannel(channelmetrics.NewChannel(ch)))
	}
	return registry
}
