package config

import (
	"github.com/akeren/go-waitlist/pkg/constants"
	"github.com/akeren/go-waitlist/pkg/utils"
)

type WaitlistConfig struct {
	AppName       string
	AdminPassword string
	Locale        string
	MessagesFile  string
}

func NewWaitlistConfig() *WaitlistConfig {
	return &WaitlistConfig{
		AppName:       utils.GetEnvTrimmedOrDefault("APP_NAME", constants.DefaultAppName),
		AdminPassword: utils.GetEnvOrDefault("WAITLIST_ADMIN_PASSWORD", ""),
		Locale:        utils.GetEnvTrimmedOrDefault("WAITLIST_LOCALE", "fr"),
		MessagesFile:  utils.GetEnvTrimmed("WAITLIST_MESSAGES_FILE"),
	}
}
