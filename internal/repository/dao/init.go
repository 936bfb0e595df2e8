package dao

import (
	"github.com/ego-component/egorm"
)

// InitTables 建表，测试环境和首次部署时使用
func InitTables(db *egorm.Component) error {
	return db.AutoMigrate(
		&Notification{},
		&ScheduledEntry{},
		&Template{},
		&UserPreference{},
		&DeviceToken{},
		&InboxMessage{},
		&UserContact{},
	)
}
