package store

import "errors"

// Referential failures are sentinel errors so the request layer can map each
// one to its reply string. None of them ever escapes as a panic.
var (
	ErrUserExists      = errors.New("username already taken")
	ErrUnknownUser     = errors.New("user does not exist")
	ErrUnknownPost     = errors.New("post does not exist")
	ErrSelfFollow      = errors.New("cannot follow yourself")
	ErrAlreadyFollowed = errors.New("already following this user")
	ErrNotFollowing    = errors.New("not following this user")
	ErrNotFollower     = errors.New("you do not follow the author of this post")
	ErrOwnPost         = errors.New("cannot interact with your own post")
	ErrNotAuthor       = errors.New("only the author can delete a post")
	ErrAlreadyVoted    = errors.New("already voted this way on this post")
	ErrAlreadyRewinned = errors.New("post already rewinned")
	ErrNoRewin         = errors.New("post was not rewinned")

	ErrInvalidUsername  = errors.New("username must be 1-32 word characters")
	ErrReservedUsername = errors.New("username is reserved")
	ErrEmptyPassword    = errors.New("password must not be empty")
	ErrTitleTooLong     = errors.New("title longer than 20 characters")
	ErrContentTooLong   = errors.New("content longer than 500 characters")
	ErrEmptyTitle       = errors.New("title must not be empty")
	ErrEmptyContent     = errors.New("content must not be empty")
)
