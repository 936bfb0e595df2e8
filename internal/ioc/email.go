package ioc

import (
	"github.com/gotomicro/ego/core/econf"
	"github.com/mrz1836/postmark"
)

type EmailConfig struct {
	ServerToken  string `yaml:"serverToken"`
	AccountToken string `yaml:"accountToken"`
	From         string `yaml:"from"`
}

func InitEmailConfig() EmailConfig {
	var cfg EmailConfig
	err := econf.UnmarshalKey("email.postmark", &cfg)
	if err != nil {
		panic(err)
	}
	return cfg
}

func InitEmailClient(cfg EmailConfig) *postmark.Client {
	return postmark.NewClient(cfg.ServerToken, cfg.AccountToken)
}
