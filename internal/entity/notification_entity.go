package entity

// Notification is a transient user-facing message. Ids are monotonic per
// process so removal can be addressed by identity even while the queue is
// being appended to concurrently.
type Notification struct {
	Id        int64  `json:"id"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}
