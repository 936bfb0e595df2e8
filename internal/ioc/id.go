package ioc

import (
	"github.com/sony/sonyflake"
)

func InitIDGenerator() *sonyflake.Sonyflake {
	generator := sonyflake.NewSonyflake(sonyflake.Settings{})
	if generator == nil {
		panic("初始化ID生成器失败")
	}
	return generator
}
