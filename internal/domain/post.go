package domain

// MediaTypePhoto is the media type that disqualifies a post from processing.
const MediaTypePhoto = "photo"

// Post is a single timeline item as returned by the timeline API.
// Read-only to this system; created by the external service.
type Post struct {
	ID          string       `json:"id"`
	Text        string       `json:"text"`
	Attachments *Attachments `json:"attachments,omitempty"`
}

// Attachments holds the media keys a post declares. The keys resolve
// against the batch-level media includes table.
type Attachments struct {
	MediaKeys []string `json:"media_keys,omitempty"`
}

// MediaItem describes one entry of the includes.media payload.
type MediaItem struct {
	MediaKey string `json:"media_key"`
	Type     string `json:"type"`
	URL      string `json:"url,omitempty"`
}

// Timeline is one fetched batch: the ordered posts plus the media lookup
// table keyed by media_key.
type Timeline struct {
	Posts []Post
	Media map[string]MediaItem
}

// Label is the binary classification outcome for a post.
type Label string

const (
	LabelTrade    Label = "trade"
	LabelNotTrade Label = "not-trade"
)
