package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atomicstack/pollchat/internal/api"
	"github.com/atomicstack/pollchat/internal/format/table"
	"github.com/atomicstack/pollchat/internal/state"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

const (
	appTitle          = "pollchat"
	headerSeparator   = " · "
	splitMinWidth     = 60 // narrower terminals show one pane at a time
	channelColumnMax  = 28
	columnSeparator   = " │ "
	timestampLayout   = "15:04"
	infoDuration      = 5 * time.Second
	mainFooterText    = "tab focus  enter open  r reply  e react  i write  alt+← back  alt+→ forward  ctrl+n new channel  ctrl+l logout"
	channelsEmptyText = "(no channels)"
)

type styledLine struct {
	text          string
	style         *lipgloss.Style
	prefixStyle   *lipgloss.Style
	highlightFrom int
	raw           bool // text contains ANSI escapes; skip style wrapping, use ANSI-aware truncation
}

// View implements tea.Model.
func (m *Model) View() string {
	if !m.view.LoggedIn() {
		return m.viewAuth()
	}
	if m.prompt != nil {
		return m.viewPrompt()
	}
	return m.viewMain()
}

func (m *Model) viewAuth() string {
	lines := []styledLine{{text: appTitle, style: styles.Header}, {}}
	if m.auth != nil {
		lines = append(lines, m.formLines(m.auth.Title(), m.auth.Lines(), m.auth.Error(), m.auth.Help())...)
	}
	lines = append(lines, m.statusLines()...)
	lines = limitHeight(lines, m.height, m.width)
	return renderLines(applyWidth(lines, m.width))
}

func (m *Model) viewPrompt() string {
	lines := []styledLine{{text: m.headerText(), style: styles.Header}, {}}
	lines = append(lines, m.formLines(m.prompt.Title(), m.prompt.Lines(), m.prompt.Error(), m.prompt.Help())...)
	lines = append(lines, m.statusLines()...)
	lines = limitHeight(lines, m.height, m.width)
	return renderLines(applyWidth(lines, m.width))
}

func (m *Model) formLines(title string, fields []string, errText, help string) []styledLine {
	lines := []styledLine{{text: title, style: styles.FormTitle}, {}}
	for _, f := range fields {
		if strings.HasPrefix(f, "\x1b") || strings.Contains(f, "\x1b[") {
			lines = append(lines, styledLine{text: f, raw: true})
			continue
		}
		lines = append(lines, styledLine{text: f, style: styles.FormLabel})
	}
	if errText != "" {
		lines = append(lines, styledLine{}, styledLine{text: errText, style: styles.Error})
	}
	lines = append(lines, styledLine{}, styledLine{text: help, style: styles.Footer})
	return lines
}

// statusLines renders the pending action, the info message and the last
// error, in that order.
func (m *Model) statusLines() []styledLine {
	var lines []styledLine
	if m.loading && m.pendingLabel != "" {
		lines = append(lines, styledLine{text: fmt.Sprintf("%s…", m.pendingLabel), style: styles.Loading})
	}
	if info := m.currentInfo(); info != "" {
		lines = append(lines, styledLine{text: info, style: styles.Info})
	}
	if m.errMsg != "" {
		lines = append(lines, styledLine{text: fmt.Sprintf("Error: %s", m.errMsg), style: styles.Error})
	}
	if len(lines) > 0 {
		lines = append([]styledLine{{}}, lines...)
	}
	return lines
}

func (m *Model) headerText() string {
	parts := []string{appTitle}
	if m.session != nil {
		if sess, ok := m.session.Current(); ok && sess.Username != "" {
			parts = append(parts, sess.Username)
		}
	}
	if loc := m.location(); loc != "" {
		parts = append(parts, loc)
	}
	return strings.Join(parts, headerSeparator)
}

func (m *Model) viewMain() string {
	header := applyWidth([]styledLine{{text: m.headerText(), style: styles.Header}}, m.width)
	bodyH := m.bodyHeight()

	var body string
	if m.width >= splitMinWidth {
		body = m.viewSplit(bodyH)
	} else {
		var lines []styledLine
		if m.view.Kind() == state.KindChannelList || m.focus == focusChannels {
			lines = m.channelLines(m.width, bodyH)
		} else {
			lines = m.messageLines(bodyH)
		}
		body = renderLines(applyWidth(padHeight(lines, bodyH), m.width))
	}

	bottom := []styledLine{m.statusLine(), m.inputLine()}
	if m.showFooter {
		bottom = append(bottom, styledLine{text: mainFooterText, style: styles.Footer})
	}
	bottom = applyWidth(bottom, m.width)
	return renderLines(header) + "\n" + body + "\n" + renderLines(bottom)
}

// viewSplit renders the channel list on the left and the open channel or
// thread on the right.
func (m *Model) viewSplit(height int) string {
	leftW := m.channelColumnWidth()
	rightW := m.width - leftW - lipgloss.Width(columnSeparator)
	if rightW < 1 {
		rightW = 1
	}
	leftLines := m.channelLines(leftW, height)
	rightLines := m.messageLines(height)
	if height <= 0 {
		height = max(len(leftLines), len(rightLines))
	}
	left := padColumn(renderLines(applyWidth(padHeight(leftLines, height), leftW)), leftW)
	right := renderLines(applyWidth(padHeight(rightLines, height), rightW))

	sepRows := make([]string, height)
	for i := range sepRows {
		sepRows[i] = styles.ItemIndicator.Render(columnSeparator)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, strings.Join(sepRows, "\n"), right)
}

func (m *Model) channelColumnWidth() int {
	w := m.width / 3
	if w > channelColumnMax {
		w = channelColumnMax
	}
	if w < 12 {
		w = 12
	}
	return w
}

func (m *Model) channelLines(width, height int) []styledLine {
	l := m.channelLevel
	title := "Channels"
	if m.focus == focusChannels {
		title = "▸ Channels"
	}
	lines := []styledLine{{text: title, style: styles.Header}}
	if len(l.Items) == 0 {
		msg := channelsEmptyText
		if l.Filter != "" {
			msg = fmt.Sprintf("No matches for %q", l.Filter)
		}
		return append(lines, styledLine{text: msg, style: styles.Info})
	}
	rows := make([][]string, len(l.Items))
	for i, item := range l.Items {
		badge := ""
		if item.Badge > 0 {
			badge = strconv.Itoa(item.Badge)
		}
		rows[i] = []string{item.Label, badge}
	}
	formatted := table.Format(rows, []table.Alignment{table.AlignLeft, table.AlignRight})
	start, end := visibleRange(l, height-1)
	for idx := start; idx < end; idx++ {
		line := m.buildItemLine(formatted[idx], idx, l, width)
		if idx != l.Cursor && l.Items[idx].Badge > 0 {
			line.style = styles.Unread
		}
		if l.Items[idx].ID == m.view.ChannelID() && idx != l.Cursor {
			line.style = styles.SelectedItem
		}
		lines = append(lines, line)
	}
	return lines
}

func (m *Model) messageLines(height int) []styledLine {
	title := m.location()
	if m.focus == focusMessages {
		title = "▸ " + title
	}
	lines := []styledLine{{text: title, style: styles.ThreadTitle}}
	l := m.messageLevel
	msgs := m.visibleMessages()
	if len(msgs) == 0 {
		switch m.view.Kind() {
		case state.KindChannelList:
			return append(lines, styledLine{text: "Pick a channel to start reading.", style: styles.Info})
		default:
			return append(lines, styledLine{text: "(no messages yet)", style: styles.Info})
		}
	}
	byID := make(map[int64]api.Message, len(msgs))
	for _, msg := range msgs {
		byID[msg.ID] = msg
	}
	start, end := visibleRange(l, height-1)
	for idx := start; idx < end; idx++ {
		msg, ok := byID[l.Items[idx].ID]
		if !ok {
			continue
		}
		reply := m.view.Kind() == state.KindThread && idx > 0
		lines = append(lines, m.messageLine(msg, idx == l.Cursor, reply))
	}
	return lines
}

// messageLine renders one message as pre-styled text. Reply counts are only
// shown in the channel transcript; "Reply" and "N replies" open the same
// thread.
func (m *Model) messageLine(msg api.Message, selected, reply bool) styledLine {
	indicator := styles.ItemIndicator.Render("▌")
	if selected {
		indicator = styles.SelectedItemIndicator.Render("▌")
	}
	var b strings.Builder
	b.WriteString(indicator)
	b.WriteString(" ")
	if reply {
		b.WriteString(styles.Timestamp.Render("↳ "))
	}
	if !msg.Timestamp.IsZero() {
		b.WriteString(styles.Timestamp.Render(msg.Timestamp.Local().Format(timestampLayout)))
		b.WriteString(" ")
	}
	b.WriteString(styles.Author.Render(msg.AuthorName))
	b.WriteString(" ")
	body := strings.ReplaceAll(msg.Content, "\n", " ")
	if selected {
		b.WriteString(styles.SelectedItem.Render(body))
	} else {
		b.WriteString(styles.Body.Render(body))
	}
	if emojis := msg.ReactionEmojis(); len(emojis) > 0 {
		parts := make([]string, 0, len(emojis))
		for _, e := range emojis {
			parts = append(parts, fmt.Sprintf("%s %d", e, len(msg.Reactions[e])))
		}
		b.WriteString("  ")
		b.WriteString(styles.Reactions.Render(strings.Join(parts, "  ")))
	}
	if m.view.Kind() == state.KindChannel {
		b.WriteString("  ")
		b.WriteString(styles.ReplyLink.Render(replyLabel(msg.ReplyCount)))
	}
	return styledLine{text: b.String(), raw: true}
}

func replyLabel(count int) string {
	switch {
	case count <= 0:
		return "Reply"
	case count == 1:
		return "1 reply"
	default:
		return fmt.Sprintf("%d replies", count)
	}
}

func (m *Model) statusLine() styledLine {
	switch {
	case m.errMsg != "":
		return styledLine{text: fmt.Sprintf("Error: %s", m.errMsg), style: styles.Error}
	case m.loading && m.pendingLabel != "":
		return styledLine{text: fmt.Sprintf("Loading %s…", m.pendingLabel), style: styles.Loading}
	default:
		if info := m.currentInfo(); info != "" {
			return styledLine{text: info, style: styles.Info}
		}
	}
	return styledLine{}
}

// inputLine is the channel filter while the channel list has focus and the
// compose box otherwise.
func (m *Model) inputLine() styledLine {
	if m.focus == focusChannels {
		return styledLine{text: m.filterPrompt(), raw: true}
	}
	if m.view.ChannelID() == 0 {
		return styledLine{}
	}
	if m.focus != focusCompose {
		hint := "i to write a message"
		if m.view.Kind() == state.KindThread {
			hint = "i to reply in thread"
		}
		return styledLine{text: hint, style: styles.FilterPlaceholder}
	}
	return styledLine{text: m.compose.View(), raw: true}
}

func (m *Model) buildItemLine(label string, idx int, current *level, width int) styledLine {
	indicator := "▌"
	lineStyle := styles.Item
	indicatorStyle := styles.ItemIndicator
	if idx == current.Cursor {
		indicatorStyle = styles.SelectedItemIndicator
		lineStyle = styles.SelectedItem
	}
	fullText := indicator + " " + label
	if width > 0 {
		if pad := width - table.Width(fullText); pad > 0 {
			fullText += strings.Repeat(" ", pad)
		}
	}
	return styledLine{
		text:          fullText,
		style:         lineStyle,
		prefixStyle:   indicatorStyle,
		highlightFrom: 1,
	}
}

// visibleRange is the window of l's items that fits in rows.
func visibleRange(l *level, rows int) (int, int) {
	n := len(l.Items)
	if rows <= 0 || n <= rows {
		return 0, n
	}
	start := l.ViewportOffset
	if start < 0 {
		start = 0
	}
	if start+rows > n {
		start = n - rows
	}
	return start, start + rows
}

func (m *Model) handleWindowSizeMsg(msg tea.Msg) tea.Cmd {
	resize, ok := msg.(tea.WindowSizeMsg)
	if !ok {
		return nil
	}
	if !m.fixedWidth {
		m.width = resize.Width
	}
	if !m.fixedHeight {
		m.height = resize.Height
	}
	m.syncViewport(m.channelLevel)
	m.syncViewport(m.messageLevel)
	return nil
}

// bodyHeight is the number of rows between the header and the bottom bar.
func (m *Model) bodyHeight() int {
	if m.height <= 0 {
		return -1
	}
	used := 3 // header + status + input
	if m.showFooter {
		used++
	}
	if remain := m.height - used; remain > 1 {
		return remain
	}
	return 1
}

// maxVisibleRows is the number of list items a pane can show below its
// title.
func (m *Model) maxVisibleRows() int {
	h := m.bodyHeight()
	if h < 0 {
		return -1
	}
	if h-1 < 1 {
		return 1
	}
	return h - 1
}

func (m *Model) setInfo(message string) {
	m.infoMsg = message
	m.infoExpire = time.Now().Add(infoDuration)
}

func (m *Model) forceClearInfo() {
	m.infoMsg = ""
	m.infoExpire = time.Time{}
}

func (m *Model) currentInfo() string {
	if m.infoMsg != "" && !m.infoExpire.IsZero() && time.Now().After(m.infoExpire) {
		m.infoMsg = ""
		m.infoExpire = time.Time{}
	}
	return m.infoMsg
}

func padHeight(lines []styledLine, height int) []styledLine {
	if height <= 0 {
		return lines
	}
	if len(lines) > height {
		return lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, styledLine{})
	}
	return lines
}

// padColumn pads or truncates every rendered row to exactly width visible
// columns so the next column stays aligned.
func padColumn(rendered string, width int) string {
	rows := strings.Split(rendered, "\n")
	for i, row := range rows {
		w := lipgloss.Width(row)
		if w > width {
			rows[i] = truncate.StringWithTail(row, uint(width-1), "…")
		} else if w < width {
			rows[i] = row + strings.Repeat(" ", width-w)
		}
	}
	return strings.Join(rows, "\n")
}

func limitHeight(lines []styledLine, height, width int) []styledLine {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	if height == 1 {
		return []styledLine{{text: truncateText("…", width)}}
	}
	trimmed := make([]styledLine, 0, height)
	trimmed = append(trimmed, lines[:height-1]...)
	trimmed = append(trimmed, styledLine{text: truncateText("…", width)})
	return trimmed
}

func applyWidth(lines []styledLine, width int) []styledLine {
	if width <= 0 {
		return lines
	}
	result := make([]styledLine, len(lines))
	for i, line := range lines {
		text := line.text
		if line.raw {
			if lipgloss.Width(text) > width {
				text = truncate.StringWithTail(text, uint(width-1), "…")
			}
		} else {
			text = truncateText(text, width)
		}
		line.text = text
		result[i] = line
	}
	return result
}

func renderLines(lines []styledLine) string {
	out := make([]string, len(lines))
	for i, line := range lines {
		text := line.text
		if line.raw {
			out[i] = text
			continue
		}
		runes := []rune(text)
		if line.highlightFrom > 0 && line.highlightFrom < len(runes) {
			head := string(runes[:line.highlightFrom])
			tail := string(runes[line.highlightFrom:])
			if line.prefixStyle != nil {
				head = line.prefixStyle.Render(head)
			}
			if line.style != nil {
				tail = line.style.Render(tail)
			}
			text = head + tail
		} else if line.style != nil {
			text = line.style.Render(text)
		}
		out[i] = text
	}
	return strings.Join(out, "\n")
}

// truncateText cuts text to width terminal cells, marking the cut with an
// ellipsis.
func truncateText(text string, width int) string {
	if width <= 0 || table.Width(text) <= width {
		return text
	}
	if width == 1 {
		return "…"
	}
	return truncate.StringWithTail(text, uint(width-1), "") + "…"
}
