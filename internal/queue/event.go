// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names. Both queues are durable.
const (
	TokenReuseQueue     = "auth.token_reuse"
	FriendAcceptedQueue = "friend.accepted"
)

// TokenReuseEvent is published when a refresh rotation is rejected because
// the presented token's fingerprint no longer matches the stored one. This is
// the monitoring hook for possible token theft: the rejection itself is a
// generic 401 to the client, but security tooling consumes this event.
type TokenReuseEvent struct {
	UserID     uint64 `json:"user_id"`
	RemoteAddr string `json:"remote_addr"`
	UserAgent  string `json:"user_agent"`
	DetectedAt string `json:"detected_at"`
}

// FriendAcceptedEvent is published when a friend request is accepted so
// downstream consumers can notify the requester without querying the primary
// database.
type FriendAcceptedEvent struct {
	FriendshipID      uint64 `json:"friendship_id"`
	RequesterID       uint64 `json:"requester_id"`
	AddresseeID       uint64 `json:"addressee_id"`
	AddresseeUsername string `json:"addressee_username"`
	AcceptedAt        string `json:"accepted_at"`
}
