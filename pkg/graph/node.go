package graph

import "github.com/google/uuid"

type Kind int

const (
	KindUser Kind = iota
	KindPost
	KindComment
	KindLike
	KindGroup
)

// Group labels used by the store.
const (
	LabelPosts      = "POSTS"
	LabelComments   = "COMMENTS"
	LabelLikes      = "LIKES"
	LabelNewEntries = "NEW_ENTRIES"
)

// Node is a value type; two nodes are the same node iff their identity
// strings are equal. For group nodes the identity embeds the full parent
// chain, so any caller constructing a group node from the same label and
// parent addresses the same conceptual anchor without a shared allocation.
type Node struct {
	id   string
	Kind Kind
	// Key is the wrapped value: a username, an entity id string, or the
	// group label for group nodes.
	Key string
}

func UserNode(username string) Node {
	return Node{id: "user:" + username, Kind: KindUser, Key: username}
}

func PostNode(id uuid.UUID) Node {
	return Node{id: "post:" + id.String(), Kind: KindPost, Key: id.String()}
}

func CommentNode(id uuid.UUID) Node {
	return Node{id: "comment:" + id.String(), Kind: KindComment, Key: id.String()}
}

func LikeNode(id uuid.UUID) Node {
	return Node{id: "like:" + id.String(), Kind: KindLike, Key: id.String()}
}

// GroupNode returns the group node labeled label under parent.
func GroupNode(label string, parent Node) Node {
	return Node{id: parent.id + "/" + label, Kind: KindGroup, Key: label}
}

// NewEntriesNode is the process-wide staging anchor. It has no parent.
func NewEntriesNode() Node {
	return Node{id: "/" + LabelNewEntries, Kind: KindGroup, Key: LabelNewEntries}
}

func (n Node) String() string {
	return n.id
}

// IsZero reports whether n is the zero Node, which is not a valid graph node.
func (n Node) IsZero() bool {
	return n.id == ""
}
