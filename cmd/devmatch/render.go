package main

import (
	"fmt"
	"strings"

	"devmatch/client/internal/feed"
	"devmatch/client/internal/models"

	"github.com/charmbracelet/lipgloss"
)

const chatWidth = 60

var (
	colorAccent = lipgloss.Color("#20B9B4")
	colorMuted  = lipgloss.Color("#2C4A54")
	colorWarn   = lipgloss.Color("#F4D03F")
	colorError  = lipgloss.Color("#E74C3C")
)

var styles = struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Prompt  lipgloss.Style
	Card    lipgloss.Style
	Skill   lipgloss.Style
	Self    lipgloss.Style
	Peer    lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
	Muted:   lipgloss.NewStyle().Foreground(colorMuted),
	Warning: lipgloss.NewStyle().Foreground(colorWarn),
	Error:   lipgloss.NewStyle().Foreground(colorError),
	Prompt:  lipgloss.NewStyle().Foreground(colorAccent),
	Card: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Padding(0, 1).
		Width(40),
	Skill: lipgloss.NewStyle().Foreground(colorAccent).Italic(true),
	Self: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Padding(0, 1),
	Peer: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorMuted).
		Padding(0, 1),
}

// renderProfile is the one-card view of a profile.
func renderProfile(p models.Profile, t func(string, ...any) string) string {
	lines := []string{styles.Title.Render(p.FullName())}
	var facts []string
	if p.Age != nil {
		facts = append(facts, t("profile.age", *p.Age))
	}
	if p.Gender != "" {
		facts = append(facts, p.Gender)
	}
	if len(facts) > 0 {
		lines = append(lines, styles.Muted.Render(strings.Join(facts, ", ")))
	}
	if p.Bio != "" {
		lines = append(lines, p.Bio)
	}
	if len(p.Skills) > 0 {
		lines = append(lines, styles.Skill.Render(strings.Join(p.Skills, " · ")))
	}
	return styles.Card.Render(strings.Join(lines, "\n"))
}

// renderProfileLine is the list view of a profile.
func renderProfileLine(p models.Profile) string {
	line := p.FullName()
	if len(p.Skills) > 0 {
		line += "  " + styles.Skill.Render(strings.Join(p.Skills, ", "))
	}
	return line + "  " + styles.Muted.Render(p.ID)
}

// renderFeed draws the active card and the paging status.
func renderFeed(s feed.Snapshot, t func(string, ...any) string) string {
	var b strings.Builder
	switch s.State {
	case feed.StateLoading:
		b.WriteString(styles.Muted.Render(t("feed.loading")))
	case feed.StateFailed:
		b.WriteString(styles.Error.Render(t("feed.failed", s.Err)))
	case feed.StateEmpty:
		b.WriteString(styles.Warning.Render(t("feed.empty")))
	case feed.StatePopulated:
		if p, ok := s.Active(); ok {
			b.WriteString(renderProfile(p, t))
			b.WriteString("\n")
			b.WriteString(styles.Muted.Render(t("feed.card", s.ActiveIndex+1, len(s.Items))))
		} else {
			b.WriteString(styles.Warning.Render(t("feed.page_done")))
		}
	default:
		b.WriteString(styles.Muted.Render(t("feed.idle")))
	}
	if pg := s.Pagination; pg != nil {
		b.WriteString("\n")
		b.WriteString(styles.Muted.Render(t("feed.page", pg.Page, max(pg.TotalPages, 1), pg.Total)))
	}
	if s.Server.Active() {
		b.WriteString("\n")
		b.WriteString(styles.Muted.Render(t("feed.filters", describeFilters(s.Server))))
	}
	return b.String()
}

func describeFilters(f *models.AppliedFilters) string {
	var parts []string
	if f.Skills != "" {
		parts = append(parts, "skills="+f.Skills)
	}
	if f.MinAge != nil {
		parts = append(parts, fmt.Sprintf("minAge=%d", *f.MinAge))
	}
	if f.MaxAge != nil {
		parts = append(parts, fmt.Sprintf("maxAge=%d", *f.MaxAge))
	}
	if f.Gender != "" && f.Gender != models.GenderAll {
		parts = append(parts, "gender="+f.Gender)
	}
	return strings.Join(parts, " ")
}

// renderMessage draws a chat bubble. The user's own messages sit on the right.
func renderMessage(m models.Message, self bool) string {
	if self {
		return lipgloss.PlaceHorizontal(chatWidth, lipgloss.Right, styles.Self.Render(m.Text))
	}
	name := strings.TrimSpace(m.FirstName + " " + m.LastName)
	return styles.Peer.Render(styles.Title.Render(name) + "\n" + m.Text)
}
