package preview

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPhotoRequiresImage(t *testing.T) {
	t.Parallel()

	p := NewPhoto("", "title", "desc")
	require.True(t, p.IsNone())

	p = NewPhoto("https://example.com/a.jpg", "title", "")
	require.Equal(t, KindPhoto, p.Kind)
	require.Equal(t, "https://example.com/a.jpg", p.Image)
}

func TestVideoRequiresEmbedAndThumbnail(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		image string
		html  string
		want  bool
	}{
		{"both present", "https://example.com/t.jpg", "<iframe></iframe>", false},
		{"missing html", "https://example.com/t.jpg", "", true},
		{"missing image", "", "<iframe></iframe>", true},
		{"missing both", "", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NewVideo(tc.image, tc.html, "", "")
			if got.IsNone() != tc.want {
				t.Fatalf("NewVideo(%q, %q).IsNone() = %v, want %v", tc.image, tc.html, got.IsNone(), tc.want)
			}
		})
	}
}

func TestEmptyBasicIsNotNone(t *testing.T) {
	t.Parallel()

	p := NewBasic("", "", "")
	require.False(t, p.IsNone())
	require.Equal(t, KindBasic, p.Kind)
}

func TestZeroValueIsNone(t *testing.T) {
	t.Parallel()

	var p Preview
	require.True(t, p.IsNone())
}

func TestPreviewJSONRoundTrip(t *testing.T) {
	t.Parallel()

	in := NewVideo("https://cdn.example.com/t.jpg", "<iframe></iframe>", "Title", "Desc")
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Preview
	require.NoError(t, json.Unmarshal(data, &out))
	require.Equal(t, in, out)
}
