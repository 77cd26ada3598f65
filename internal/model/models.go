package model

// All lists every table for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Friendship{},
		&Post{},
		&PostAttachment{},
		&GroupPost{},
		&Group{},
		&GroupMember{},
		&Like{},
		&Comment{},
		&Notification{},
		&NotificationPreference{},
		&PushSubscription{},
		&Message{},
		&Album{},
		&AlbumPhoto{},
	}
}
