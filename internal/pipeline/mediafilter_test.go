package pipeline

import (
	"testing"

	"tradebot/internal/domain"
)

func TestHasPhotoAttachment(t *testing.T) {
	media := map[string]domain.MediaItem{
		"3_photo": {MediaKey: "3_photo", Type: "photo"},
		"3_video": {MediaKey: "3_video", Type: "video"},
	}

	cases := []struct {
		name string
		post domain.Post
		want bool
	}{
		{
			name: "no attachments",
			post: domain.Post{ID: "1", Text: "plain text"},
			want: false,
		},
		{
			name: "empty media keys",
			post: domain.Post{ID: "2", Attachments: &domain.Attachments{}},
			want: false,
		},
		{
			name: "photo attachment",
			post: domain.Post{ID: "3", Attachments: &domain.Attachments{MediaKeys: []string{"3_photo"}}},
			want: true,
		},
		{
			name: "video attachment only",
			post: domain.Post{ID: "4", Attachments: &domain.Attachments{MediaKeys: []string{"3_video"}}},
			want: false,
		},
		{
			name: "mixed media includes photo",
			post: domain.Post{ID: "5", Attachments: &domain.Attachments{MediaKeys: []string{"3_video", "3_photo"}}},
			want: true,
		},
		{
			name: "key missing from includes table",
			post: domain.Post{ID: "6", Attachments: &domain.Attachments{MediaKeys: []string{"3_unknown"}}},
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasPhotoAttachment(tc.post, media); got != tc.want {
				t.Fatalf("HasPhotoAttachment = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHasPhotoAttachment_EmptyIncludes(t *testing.T) {
	post := domain.Post{ID: "7", Attachments: &domain.Attachments{MediaKeys: []string{"3_photo"}}}
	if HasPhotoAttachment(post, nil) {
		t.Fatal("empty includes table must resolve to false")
	}
}
