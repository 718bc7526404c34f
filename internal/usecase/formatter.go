package usecase

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/valyala/bytebufferpool"

	"github.com/gilangnh/matchday/internal/config"
	"github.com/gilangnh/matchday/internal/domain/match"
)

// Formatter renders fixture digests and match results as Markdown for the
// dispatch channel. League names are canonicalized through the catalog and
// team names enriched through the resolver before rendering.
type Formatter struct {
	catalog *config.LeagueCatalog
	teams   TeamResolver
}

func NewFormatter(catalog *config.LeagueCatalog, teams TeamResolver) *Formatter {
	return &Formatter{catalog: catalog, teams: teams}
}

var scoreEmojis = [...]string{"0️⃣", "1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣", "6️⃣", "7️⃣", "8️⃣", "9️⃣", "🔟"}

func scoreEmoji(n int) string {
	if n >= 0 && n < len(scoreEmojis) {
		return scoreEmojis[n]
	}
	return strconv.Itoa(n)
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"_", `\_`,
	"*", `\*`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"(", `\(`,
	")", `\)`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// FixturesDigest renders the daily digest: matches grouped by league in
// catalog priority order, each with enriched team names and kickoff times in
// both the league's display timezone and UTC.
func (f *Formatter) FixturesDigest(ctx context.Context, matches []match.Match) string {
	if len(matches) == 0 {
		return ""
	}

	ordered := make([]match.Match, len(matches))
	copy(ordered, matches)
	sort.SliceStable(ordered, func(i, j int) bool {
		ri := f.catalog.PriorityRank(f.catalog.Alias(ordered[i].LeagueName))
		rj := f.catalog.PriorityRank(f.catalog.Alias(ordered[j].LeagueName))
		if ri != rj {
			return ri < rj
		}
		return ordered[i].KickoffUTC.Before(ordered[j].KickoffUTC)
	})

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString("📌 𝗧𝗼𝗱𝗮𝘆'𝘀 𝗠𝗮𝘁𝗰𝗵𝗲𝘀\n")

	currentLeague := ""
	for _, m := range ordered {
		league := f.catalog.Alias(m.LeagueName)
		if league != currentLeague {
			currentLeague = league
			buf.WriteString("\n")
			buf.WriteString(f.catalog.Icon(league))
			buf.WriteString(" *")
			buf.WriteString(escapeMarkdown(league))
			buf.WriteString("*\n\n")
		}

		home := f.teams.Resolve(ctx, m.Home)
		away := f.teams.Resolve(ctx, m.Away)

		buf.WriteString(home.Emoji)
		buf.WriteString(" *")
		buf.WriteString(escapeMarkdown(home.ShortName))
		buf.WriteString("* 🆚 *")
		buf.WriteString(escapeMarkdown(away.ShortName))
		buf.WriteString("* ")
		buf.WriteString(away.Emoji)
		buf.WriteString("\n🕡 ")
		buf.WriteString(m.LocalTime)
		buf.WriteString(" Local | ")
		buf.WriteString(m.KickoffUTC.UTC().Format("15:04"))
		buf.WriteString(" UTC 🌐\n\n")
	}

	return strings.TrimSpace(buf.String())
}

// MatchResult renders a full-time result message for one finished match.
func (f *Formatter) MatchResult(ctx context.Context, m match.Match) string {
	league := f.catalog.Alias(m.LeagueName)
	home := f.teams.Resolve(ctx, m.Home)
	away := f.teams.Resolve(ctx, m.Away)

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString("📣 𝗙𝘂𝗹𝗹 𝗧𝗶𝗺𝗲\n\n")
	buf.WriteString(f.catalog.Icon(league))
	buf.WriteString(" *")
	buf.WriteString(escapeMarkdown(league))
	buf.WriteString("*\n\n")
	buf.WriteString(home.Emoji)
	buf.WriteString(" *")
	buf.WriteString(escapeMarkdown(home.ShortName))
	buf.WriteString("* ")
	buf.WriteString(scoreEmoji(m.HomeScore))
	buf.WriteString(" - ")
	buf.WriteString(scoreEmoji(m.AwayScore))
	buf.WriteString(" *")
	buf.WriteString(escapeMarkdown(away.ShortName))
	buf.WriteString("* ")
	buf.WriteString(away.Emoji)
	buf.WriteString("\n\n")
	buf.WriteString(hashtag(league))

	return buf.String()
}

// TrackingNotice renders the per-match operator notice sent when a fixture
// enters tracking.
func (f *Formatter) TrackingNotice(m match.Match) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString("🔖 Tracking match: ")
	buf.WriteString(m.Home)
	buf.WriteString(" vs ")
	buf.WriteString(m.Away)
	buf.WriteString(" at ")
	buf.WriteString(m.KickoffUTC.UTC().Format("15:04"))
	buf.WriteString(" UTC")

	return buf.String()
}

func hashtag(league string) string {
	var b strings.Builder
	b.WriteByte('#')
	for _, r := range league {
		if r == ' ' || r == '-' || r == '.' || r == '\'' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
