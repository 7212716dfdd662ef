package redis

import (
	"fmt"

	"github.com/mcoot/pokearena/internal/model"
)

// Key prefix for all arena data
const keyPrefix = "pokearena"

// userKey returns the Redis key for a User
func userKey(id model.UserID) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, id)
}

// emailIndexKey returns the Redis key for the email -> user_id index
func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", keyPrefix, email)
}

// nameIndexKey returns the Redis key for the display name -> user_id index
func nameIndexKey(name string) string {
	return fmt.Sprintf("%s:idx:name:%s", keyPrefix, model.NormalizeName(name))
}

// userListKey returns the Redis key for the LIST of user IDs in creation order
func userListKey() string {
	return fmt.Sprintf("%s:users", keyPrefix)
}
