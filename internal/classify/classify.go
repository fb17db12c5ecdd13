// Package classify derives a content category and artist/work names from
// feed post flairs and titles.
package classify

import (
	"regexp"
	"strings"

	"KhiphopPipeline/internal/domain"
)

var (
	epWord        = regexp.MustCompile(`\bep\b`)
	trailingTag   = regexp.MustCompile(`\s*\[([^\]]*)\]\s*$`)
	trailingFeat  = regexp.MustCompile(`(?i)\s*\(feat\.([^)]*)\)\s*$`)
	anyBracket    = regexp.MustCompile(`\[.*?\]`)
	noiseTags     = regexp.MustCompile(`(?i)\[MV\]|\[Audio\]|\[Album\]|\[EP\]|\([^)]*?Prod[^)]*?\)`)
	repeatedSpace = regexp.MustCompile(`\s{2,}`)
)

// DetermineCategory maps a flair and title to a category. Checks run in a
// fixed priority order and the first match wins.
func DetermineCategory(tag, title string) domain.Category {
	t := strings.ToLower(tag)
	ti := strings.ToLower(title)

	switch {
	case strings.Contains(t, "music video") || strings.Contains(ti, "[mv]"):
		return domain.CategoryMusicVideo
	case strings.Contains(t, "album"):
		return domain.CategoryAlbum
	case epWord.MatchString(t):
		return domain.CategoryEP
	case strings.Contains(t, "audio") || strings.Contains(t, "track") || strings.Contains(ti, "[audio]"):
		return domain.CategoryTrack
	case strings.Contains(t, "news"):
		return domain.CategoryNews
	case strings.Contains(t, "rumor") || strings.Contains(t, "rumour"):
		return domain.CategoryRumor
	default:
		return domain.CategoryOther
	}
}

// ExtractArtistAndTitle splits "Artist - Work [TAG] (feat. X)" titles.
// Empty results mean the title carried no recognisable pattern.
func ExtractArtistAndTitle(title string, category domain.Category) (artist, work string) {
	if a, rest, ok := strings.Cut(title, " - "); ok && strings.TrimSpace(a) != "" && strings.TrimSpace(rest) != "" {
		artist = strings.TrimSpace(a)
		work, feat := peelSuffixes(strings.TrimSpace(rest))
		if feat != "" && category == domain.CategoryTrack {
			work += " (feat. " + feat + ")"
		}
		return artist, cleanWork(work)
	}

	if strings.Contains(title, "-") {
		parts := strings.Split(title, "-")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		artist = parts[0]
		work = anyBracket.ReplaceAllString(strings.Join(parts[1:], " - "), "")
		work = cleanWork(work)
		if artist == "" || work == "" {
			return "", ""
		}
		return artist, work
	}

	return "", ""
}

// peelSuffixes strips a trailing [TAG] and (feat. X) in either order.
func peelSuffixes(rest string) (work, feat string) {
	work = rest
	for {
		if m := trailingFeat.FindStringSubmatchIndex(work); m != nil {
			if feat == "" {
				feat = strings.TrimSpace(work[m[2]:m[3]])
			}
			work = work[:m[0]]
			continue
		}
		if m := trailingTag.FindStringIndex(work); m != nil {
			work = work[:m[0]]
			continue
		}
		return strings.TrimSpace(work), feat
	}
}

func cleanWork(work string) string {
	work = noiseTags.ReplaceAllString(work, "")
	work = repeatedSpace.ReplaceAllString(work, " ")
	return strings.TrimSpace(work)
}
