package models

// ModelRegistry lists every model handled by AutoMigrate.
var ModelRegistry = []interface{}{
	&WaitlistEntry{},
	&WaitlistCounter{},
}
