package pipeline

import "tradebot/internal/domain"

// HasPhotoAttachment reports whether the post declares at least one media
// key that resolves in the includes table to a photo. Posts without
// attachments, without media keys, or with keys missing from the table are
// not considered photo posts.
func HasPhotoAttachment(post domain.Post, media map[string]domain.MediaItem) bool {
	if post.Attachments == nil || len(post.Attachments.MediaKeys) == 0 {
		return false
	}
	for _, key := range post.Attachments.MediaKeys {
		if m, ok := media[key]; ok && m.Type == domain.MediaTypePhoto {
			return true
		}
	}
	return false
}
