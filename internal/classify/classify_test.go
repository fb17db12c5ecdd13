package classify

import (
	"testing"

	"KhiphopPipeline/internal/domain"
)

func TestDetermineCategory(t *testing.T) {
	t.Parallel()

	cases := []struct {
		tag, title string
		want       domain.Category
	}{
		{"Music Video", "Zico - Spot! [Album]", domain.CategoryMusicVideo},
		{"", "NewJeans - Supernatural [MV]", domain.CategoryMusicVideo},
		{"Album", "pH-1 - But For Now Leave Me Alone", domain.CategoryAlbum},
		{"EP", "Sik-K - Hype", domain.CategoryEP},
		{"Deep Cuts", "Some title", domain.CategoryOther},
		{"Audio", "Jay Park - Forget It", domain.CategoryTrack},
		{"", "Jay Park - Forget It [Audio]", domain.CategoryTrack},
		{"News", "Show Me The Money returns", domain.CategoryNews},
		{"Rumor", "Rumored collab", domain.CategoryRumor},
		{"Discussion", "What are you listening to?", domain.CategoryOther},
	}

	for _, tc := range cases {
		if got := DetermineCategory(tc.tag, tc.title); got != tc.want {
			t.Fatalf("DetermineCategory(%q, %q) = %s, want %s", tc.tag, tc.title, got, tc.want)
		}
	}
}

func TestDetermineCategoryIsStable(t *testing.T) {
	t.Parallel()

	first := DetermineCategory("Music Video", "X - Y [Album]")
	for i := 0; i < 10; i++ {
		if got := DetermineCategory("Music Video", "X - Y [Album]"); got != first {
			t.Fatalf("category changed between calls: %s vs %s", first, got)
		}
	}
}

func TestExtractArtistAndTitle(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		title      string
		category   domain.Category
		wantArtist string
		wantWork   string
	}{
		{"bracket tag", "NewJeans - Supernatural [MV]", domain.CategoryMusicVideo, "NewJeans", "Supernatural"},
		{"feat on track", "Jay Park - Forget It [Audio] (feat. Hoody)", domain.CategoryTrack, "Jay Park", "Forget It (feat. Hoody)"},
		{"feat dropped on mv", "Jay Park - Forget It (feat. Hoody) [MV]", domain.CategoryMusicVideo, "Jay Park", "Forget It"},
		{"hyphenated artist", "Jay-Z - Song", domain.CategoryTrack, "Jay-Z", "Song"},
		{"prod credit", "Zion.T - Hello (Prod. by Jinbo) [Audio]", domain.CategoryTrack, "Zion.T", "Hello"},
		{"fallback hyphen", "Dynamic Duo-Taxi [Album]", domain.CategoryAlbum, "Dynamic Duo", "Taxi"},
		{"no separator", "What are you listening to?", domain.CategoryOther, "", ""},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			artist, work := ExtractArtistAndTitle(tc.title, tc.category)
			if artist != tc.wantArtist || work != tc.wantWork {
				t.Fatalf("ExtractArtistAndTitle(%q) = (%q, %q), want (%q, %q)", tc.title, artist, work, tc.wantArtist, tc.wantWork)
			}
		})
	}
}
