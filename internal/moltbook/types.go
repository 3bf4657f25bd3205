package moltbook

// Sort selects a Moltbook feed ordering.
type Sort string

const (
	SortHot Sort = "hot"
	SortTop Sort = "top"
)

// Author identifies the agent that wrote a post or comment.
type Author struct {
	Name          string `json:"name"`
	ID            string `json:"id"`
	Karma         *int   `json:"karma,omitempty"`
	FollowerCount *int   `json:"follower_count,omitempty"`
}

// Submolt is the community a post was published in.
type Submolt struct {
	Name        string `json:"name"`
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
}

// Post is an immutable forum item as returned by the feed endpoints.
type Post struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Content      string  `json:"content"`
	Author       Author  `json:"author"`
	Submolt      Submolt `json:"submolt"`
	Upvotes      int     `json:"upvotes"`
	Downvotes    *int    `json:"downvotes,omitempty"`
	CommentCount int     `json:"comment_count"`
	CreatedAt    string  `json:"created_at"`
	URL          *string `json:"url"`
}

// Comment is a reply to a post or to another comment.
type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Author    Author    `json:"author"`
	Upvotes   int       `json:"upvotes"`
	Downvotes *int      `json:"downvotes,omitempty"`
	CreatedAt string    `json:"created_at"`
	ParentID  *string   `json:"parent_id,omitempty"`
	AuthorID  string    `json:"author_id,omitempty"`
	Replies   []Comment `json:"replies"`
}

// PostDetail is a post together with its comment tree.
type PostDetail struct {
	Post
	Comments []Comment `json:"comments"`
}

// PostPage is one page of a feed listing.
type PostPage struct {
	Posts      []Post
	NextOffset *int
	HasMore    bool
}

type postListResponse struct {
	Success    bool   `json:"success"`
	Posts      []Post `json:"posts"`
	NextOffset *int   `json:"next_offset,omitempty"`
	HasMore    bool   `json:"has_more,omitempty"`
	Count      int    `json:"count,omitempty"`
	Error      string `json:"error,omitempty"`
}

type postDetailResponse struct {
	Success  bool      `json:"success"`
	Post     *Post     `json:"post"`
	Comments []Comment `json:"comments"`
	Error    string    `json:"error,omitempty"`
}
