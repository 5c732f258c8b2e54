package store

import (
	"regexp"

	"github.com/winsome-net/winsome/internal/logStore"
	"github.com/winsome-net/winsome/internal/metrics"
	"github.com/winsome-net/winsome/pkg/graph"
	"github.com/winsome-net/winsome/pkg/types"
)

// Usernames become file names in the data directory and field values in the
// rewins file, so the charset is restricted up front and names already taken
// by the layout itself are refused.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,32}$`)

// CreateUser registers a new user, wires their posts group into the graph
// and creates their log file. Tags are normalized and capped at five;
// the tag list is immutable afterwards.
func (s *Store) CreateUser(username, password string, tags []string) (u *types.User, err error) {
	defer func() { metrics.ObserveOp("create_user", err) }()

	if !usernamePattern.MatchString(username) {
		return nil, ErrInvalidUsername
	}
	if logStore.IsReservedName(username) {
		return nil, ErrReservedUsername
	}
	if password == "" {
		return nil, ErrEmptyPassword
	}

	u = types.NewUser(username, password, tags)

	s.usersMu.Lock()
	if _, exists := s.users[username]; exists {
		s.usersMu.Unlock()
		return nil, ErrUserExists
	}
	s.users[username] = u
	s.usersMu.Unlock()

	s.graph.PutEdge(graph.UserNode(username), postsGroupOf(username))

	if err := s.saver.SaveUser(u); err != nil {
		return nil, err
	}

	log.WithField("user", username).Info("user registered")
	return u, nil
}

func (s *Store) GetUser(username string) (*types.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return nil, ErrUnknownUser
	}
	return u, nil
}

// FollowUser records follower → followed on both user records. The two sets
// agree again as soon as the call returns.
func (s *Store) FollowUser(follower, followed string) (err error) {
	defer func() { metrics.ObserveOp("follow", err) }()

	if follower == followed {
		return ErrSelfFollow
	}
	fu, err := s.GetUser(follower)
	if err != nil {
		return err
	}
	du, err := s.GetUser(followed)
	if err != nil {
		return err
	}
	if fu.IsFollowing(followed) {
		return ErrAlreadyFollowed
	}

	fu.AddFollowing(followed)
	du.AddFollower(follower)
	return nil
}

func (s *Store) UnfollowUser(follower, followed string) (err error) {
	defer func() { metrics.ObserveOp("unfollow", err) }()

	fu, err := s.GetUser(follower)
	if err != nil {
		return err
	}
	du, err := s.GetUser(followed)
	if err != nil {
		return err
	}
	if !fu.IsFollowing(followed) {
		return ErrNotFollowing
	}

	fu.RemoveFollowing(followed)
	du.RemoveFollower(follower)
	return nil
}
