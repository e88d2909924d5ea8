package redis

const (
	// KeyPrefixBookmark is the prefix for bookmark keys
	KeyPrefixBookmark = "hoarder:bookmark:"
	// KeyAllBookmarks is the sorted set of all bookmark IDs. Every member has
	// score 0 so the set is ordered by ID.
	KeyAllBookmarks = "hoarder:bookmarks:all"
	// KeyBookmarkURLs maps canonical URLs to bookmark IDs
	KeyBookmarkURLs = "hoarder:bookmarks:url"

	// KeyPrefixList is the prefix for list keys
	KeyPrefixList = "hoarder:list:"
	// KeyAllLists is the sorted set of list IDs scored by creation time
	KeyAllLists = "hoarder:lists:all"
)

// BookmarkKey returns the Redis key for a bookmark
func BookmarkKey(id string) string {
	return KeyPrefixBookmark + id
}

// ListKey returns the Redis key for a list
func ListKey(id string) string {
	return KeyPrefixList + id
}

// ListMembersKey returns the Redis key for the set of bookmarks in a list
func ListMembersKey(id string) string {
	return KeyPrefixList + id + ":bookmarks"
}
