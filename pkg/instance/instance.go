package instance

import "github.com/angelmondragon/ebookshop-backend/pkg/env"

// ID names the running process in logs. Heroku sets DYNO, containers set
// HOSTNAME.
func ID() string {
	return env.FirstOf("local", "EBOOKSHOP_INSTANCE_ID", "DYNO", "HOSTNAME")
}
