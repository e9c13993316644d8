package model

import "time"

// Friendship statuses as stored in the `friendships.status` column.
const (
	FriendshipPending  = "PENDING"
	FriendshipAccepted = "ACCEPTED"
)

// Friendship models a directed friend request between two users. The
// requester sends the request; only the addressee may accept it. Once
// accepted the row represents a mutual friendship.
type Friendship struct {
	ID          uint64    // friendships.id
	RequesterID uint64    // friendships.requester_id
	AddresseeID uint64    // friendships.addressee_id
	Status      string    // friendships.status (PENDING | ACCEPTED)
	CreatedAt   time.Time // friendships.created_at
	UpdatedAt   time.Time // friendships.updated_at
}

// FriendSummary is the public slice of a user embedded in friend listings.
type FriendSummary struct {
	ID              uint64  `json:"id"`
	Username        string  `json:"username"`
	ProfileImageURL *string `json:"profile_image_url"`
}

// FriendRequest pairs a pending friendship with the counterpart user.
type FriendRequest struct {
	FriendshipID uint64        `json:"friendship_id"`
	User         FriendSummary `json:"user"`
	RequestedAt  time.Time     `json:"requested_at"`
}
