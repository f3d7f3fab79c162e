package friends

import "errors"

var (
	// ErrSelfRequest indicates a user attempted to friend themselves.
	ErrSelfRequest = errors.New("cannot send a friend request to yourself")
	// ErrAlreadyFriends indicates the two users are already friends.
	ErrAlreadyFriends = errors.New("already friends")
	// ErrAlreadyPending indicates an outgoing request is already awaiting a response.
	ErrAlreadyPending = errors.New("friend request already pending")
	// ErrInvalidTransition indicates the operation does not apply to the
	// current state of the edge pair, e.g. accepting when no request exists.
	ErrInvalidTransition = errors.New("invalid friend request transition")
)
