// Package browse provides the interactive split-pane TUI over the listing
// stores: active listings on the left, closed ones on the right, with a
// detail view backed by the content store.
package browse

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ian939/jobtrack/internal/model"
	"github.com/ian939/jobtrack/internal/store"
)

// Lines per listing item in the list view (title + subtitle + blank separator).
const listingItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39")) // bright blue

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")) // dim gray

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("39"))

	inactiveHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	itemTitleStyle = lipgloss.NewStyle().
			Bold(true)

	itemSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")). // bright white
				Background(lipgloss.Color("24"))  // dark blue bg

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(14)

	detailValueStyle = lipgloss.NewStyle()

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	contentDividerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	contentHintStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Italic(true)

	contentBodyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// contentFetchedMsg is sent when an async on-demand content fetch completes.
type contentFetchedMsg struct {
	link    string
	content string
}

type browseModel struct {
	active        []model.Listing
	closed        []model.Listing
	content       *store.ContentTable
	leftViewport  viewport.Model
	rightViewport viewport.Model
	activePane    int // 0=active, 1=closed
	leftCursor    int
	rightCursor   int
	width         int
	height        int
	ready         bool

	// Detail view state
	view           viewState
	detailListing  model.Listing
	detailLoading  bool
	detailViewport viewport.Model
	fetcher        model.ContentFetcher
	showContent    bool
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case contentFetchedMsg:
		m.detailLoading = false
		rec, _ := m.content.Get(msg.link)
		rec.Link = msg.link
		rec.Company = m.detailListing.Company
		rec.Title = m.detailListing.Title
		rec.Content = msg.content
		m.content.Upsert(rec)
		m.detailViewport.SetContent(m.renderDetail())
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m browseModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "left", "right":
		m.activePane = 1 - m.activePane
		m.recalcContent()
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		return m.openDetailView()
	}

	// Forward other keys (pgup/pgdn/home/end) to the active viewport.
	var cmd tea.Cmd
	if m.activePane == 0 {
		m.leftViewport, cmd = m.leftViewport.Update(msg)
	} else {
		m.rightViewport, cmd = m.rightViewport.Update(msg)
	}
	return m, cmd
}

func (m browseModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		openURL(m.detailListing.Link)
		return m, nil
	case "r":
		if rec, ok := m.content.Get(m.detailListing.Link); ok && viewableContent(rec.Content) != "" {
			m.showContent = !m.showContent
			m.detailViewport.SetContent(m.renderDetail())
			m.detailViewport.SetYOffset(0)
		}
		return m, nil
	case "f":
		if m.fetcher != nil && !m.detailLoading && !m.hasViewableContent(m.detailListing.Link) {
			m.detailLoading = true
			m.detailViewport.SetContent(m.renderDetail())
			return m, m.fetchContentCmd(m.detailListing)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m browseModel) fetchContentCmd(l model.Listing) tea.Cmd {
	fetcher := m.fetcher
	return func() tea.Msg {
		return contentFetchedMsg{link: l.Link, content: fetcher.FetchContent(context.Background(), l.Link)}
	}
}

func (m browseModel) hasViewableContent(link string) bool {
	rec, ok := m.content.Get(link)
	return ok && viewableContent(rec.Content) != ""
}

// viewableContent hides the internal failure sentinel from the UI.
func viewableContent(s string) string {
	if s == model.FetchFailedSentinel {
		return ""
	}
	return s
}

func (m *browseModel) moveCursor(delta int) {
	if m.activePane == 0 {
		m.leftCursor = clamp(m.leftCursor+delta, 0, max(len(m.active)-1, 0))
	} else {
		m.rightCursor = clamp(m.rightCursor+delta, 0, max(len(m.closed)-1, 0))
	}
}

func (m *browseModel) ensureCursorVisible() {
	var vp *viewport.Model
	var cursor int
	if m.activePane == 0 {
		vp = &m.leftViewport
		cursor = m.leftCursor
	} else {
		vp = &m.rightViewport
		cursor = m.rightCursor
	}

	cursorTop := cursor * listingItemHeight
	cursorBottom := cursorTop + listingItemHeight - 1

	if cursorTop < vp.YOffset {
		vp.SetYOffset(cursorTop)
	} else if cursorBottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(cursorBottom - vp.Height + 1)
	}
}

func (m browseModel) openDetailView() (tea.Model, tea.Cmd) {
	listings := m.activeListings()
	cursor := m.activeCursor()
	if len(listings) == 0 {
		return m, nil
	}

	m.view = viewDetail
	m.detailListing = listings[cursor]
	m.showContent = false
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m browseModel) activeListings() []model.Listing {
	if m.activePane == 0 {
		return m.active
	}
	return m.closed
}

func (m browseModel) activeCursor() int {
	if m.activePane == 0 {
		return m.leftCursor
	}
	return m.rightCursor
}

func (m *browseModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)

	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.leftViewport = viewport.New(paneWidth, paneHeight)
		m.rightViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.leftViewport.Width = paneWidth
		m.leftViewport.Height = paneHeight
		m.rightViewport.Width = paneWidth
		m.rightViewport.Height = paneHeight
	}

	m.recalcContent()
}

func (m *browseModel) recalcContent() {
	m.leftViewport.SetContent(renderListings(m.active, m.leftCursor, m.activePane == 0))
	m.rightViewport.SetContent(renderListings(m.closed, m.rightCursor, m.activePane == 1))
}

func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.view == viewDetail {
		return m.viewDetail()
	}

	return m.viewList()
}

func (m browseModel) viewList() string {
	paneWidth := m.leftViewport.Width

	leftHeader := fmt.Sprintf(" Active (%d)", len(m.active))
	rightHeader := fmt.Sprintf(" Closed (%d)", len(m.closed))

	var leftHeaderRendered, rightHeaderRendered string
	var leftBorder, rightBorder lipgloss.Style

	if m.activePane == 0 {
		leftHeaderRendered = activeHeaderStyle.Render(leftHeader)
		rightHeaderRendered = inactiveHeaderStyle.Render(rightHeader)
		leftBorder = activeBorderStyle.Width(paneWidth)
		rightBorder = inactiveBorderStyle.Width(paneWidth)
	} else {
		leftHeaderRendered = inactiveHeaderStyle.Render(leftHeader)
		rightHeaderRendered = activeHeaderStyle.Render(rightHeader)
		leftBorder = inactiveBorderStyle.Width(paneWidth)
		rightBorder = activeBorderStyle.Width(paneWidth)
	}

	leftPane := leftBorder.Render(m.leftViewport.View())
	rightPane := rightBorder.Render(m.rightViewport.View())

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(leftHeaderRendered),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(rightHeaderRendered),
	)

	panes := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, " ", rightPane)

	statusText := fmt.Sprintf(" %d active | %d closed    ←/→/Tab switch  ↑/↓ cursor  Enter detail  q quit",
		len(m.active), len(m.closed))
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + panes + "\n" + statusBar
}

func (m browseModel) viewDetail() string {
	title := detailTitleStyle.Render("Listing Details")
	if m.detailLoading {
		title += "  (fetching...)"
	}

	border := activeBorderStyle.Width(m.width - 2)
	content := border.Render(m.detailViewport.View())

	statusText := " o open URL  esc/backspace back  ↑/↓ scroll  q quit"
	if m.hasViewableContent(m.detailListing.Link) {
		statusText = " o open URL  r content  esc/backspace back  ↑/↓ scroll  q quit"
	} else if m.fetcher != nil && !m.detailLoading {
		statusText = " o open URL  f fetch content  esc/backspace back  ↑/↓ scroll  q quit"
	}
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return title + "\n" + content + "\n" + statusBar
}

func (m browseModel) renderDetail() string {
	l := m.detailListing
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}

	addField("Title", l.Title)
	addField("Company", l.Company)
	addField("Experience", l.Experience)
	addField("Source", l.Source)

	b.WriteByte('\n')

	if !l.FirstSeen.IsZero() {
		addField("First Seen", l.FirstSeen.Format(model.DateLayout))
	}
	if l.CompletedDate != nil {
		addField("Closed", l.CompletedDate.Format(model.DateLayout))
	}

	rec, hasRec := m.content.Get(l.Link)
	if hasRec {
		addField("Quality", string(rec.Quality))
		if !rec.LastUpdated.IsZero() {
			addField("Updated", rec.LastUpdated.Format(model.DateLayout))
		}
	}

	b.WriteByte('\n')
	addField("Link", l.Link)

	if hasRec && rec.Content == model.FetchFailedSentinel {
		b.WriteByte('\n')
		b.WriteString(errorStyle.Render("⚠ last content fetch failed") + "\n")
	}

	wrapWidth := max(m.width-8, 20)
	body := ""
	if hasRec {
		body = viewableContent(rec.Content)
	}

	if body != "" {
		b.WriteByte('\n')
		if m.showContent {
			fill := strings.Repeat("─", max(wrapWidth-len("── Posting Content "), 3))
			b.WriteString(contentDividerStyle.Render("── Posting Content "+fill) + "\n\n")
			b.WriteString(contentBodyStyle.Render(wordWrap(body, wrapWidth)) + "\n")
		} else {
			b.WriteString(contentHintStyle.Render("  press r to read posting content") + "\n")
		}
	} else if m.detailLoading {
		b.WriteByte('\n')
		b.WriteString(contentHintStyle.Render("  fetching posting content...") + "\n")
	} else if m.fetcher != nil {
		b.WriteByte('\n')
		b.WriteString(contentHintStyle.Render("  press f to fetch posting content") + "\n")
	}

	return b.String()
}

func renderListings(listings []model.Listing, cursor int, isActive bool) string {
	if len(listings) == 0 {
		return "  (no listings)"
	}

	var b strings.Builder
	for i, l := range listings {
		isSelected := isActive && i == cursor

		titleSt := itemTitleStyle
		subtitleSt := itemSubtitleStyle
		prefix := "  "
		if isSelected {
			titleSt = selectedTitleStyle
			subtitleSt = selectedSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(l.Title))
		b.WriteByte('\n')

		when := l.FirstSeen.Format(model.DateLayout)
		if l.CompletedDate != nil {
			when += " → " + l.CompletedDate.Format(model.DateLayout)
		}
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s", l.Company, when)))
		b.WriteByte('\n')

		if i < len(listings)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// Run launches the interactive split-pane browser over loaded stores.
// fetcher may be nil; when non-nil the 'f' key fetches posting content
// on demand in the detail view.
func Run(s *store.Stores, fetcher model.ContentFetcher) error {
	m := browseModel{
		active:  s.Active.All(),
		closed:  s.Archive.All(),
		content: s.Content,
		fetcher: fetcher,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
