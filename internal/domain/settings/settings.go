package settings

import "context"

// KeySendTime holds the HH:MM of the daily schedule push.
const KeySendTime = "SEND_TIME"

// Repository is a string key/value store for runtime settings.
type Repository interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}
