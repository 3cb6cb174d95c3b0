package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrAborted is returned when the user leaves the prompt without answering.
var ErrAborted = errors.New("prompt aborted")

// Answers are the inputs of an upload run.
type Answers struct {
	LocalPath string
	FolderID  string
}

type question struct {
	label  string
	empty  string
	answer func(*Answers) *string
	input  textinput.Model
}

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type promptModel struct {
	answers   Answers
	questions []question
	focus     int
	err       string
	done      bool
	aborted   bool
}

// newPromptModel asks only for the answers still missing from a. Blank
// answers count as missing.
func newPromptModel(a Answers) promptModel {
	a.LocalPath = strings.TrimSpace(a.LocalPath)
	a.FolderID = strings.TrimSpace(a.FolderID)

	m := promptModel{answers: a}

	if a.LocalPath == "" {
		m.questions = append(m.questions, newQuestion(
			"Enter the path to the folder you want to upload:",
			"Path cannot be empty.",
			"/path/to/folder",
			func(a *Answers) *string { return &a.LocalPath },
		))
	}

	if a.FolderID == "" {
		m.questions = append(m.questions, newQuestion(
			"Enter the Google Drive folder ID to upload into:",
			"Folder ID cannot be empty.",
			"folder id",
			func(a *Answers) *string { return &a.FolderID },
		))
	}

	if len(m.questions) > 0 {
		m.questions[0].input.Focus()
	}

	return m
}

func newQuestion(label, empty, placeholder string, answer func(*Answers) *string) question {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 4096
	in.Width = 60

	return question{
		label:  label,
		empty:  empty,
		answer: answer,
		input:  in,
	}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if len(m.questions) == 0 {
		m.done = true

		return m, tea.Quit
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.aborted = true

			return m, tea.Quit
		case tea.KeyEnter:
			q := &m.questions[m.focus]

			value := strings.TrimSpace(q.input.Value())
			if value == "" {
				m.err = q.empty

				return m, nil
			}

			m.err = ""
			*q.answer(&m.answers) = value
			q.input.Blur()

			if m.focus == len(m.questions)-1 {
				m.done = true

				return m, tea.Quit
			}

			m.focus++

			return m, m.questions[m.focus].input.Focus()
		}
	}

	var cmd tea.Cmd
	m.questions[m.focus].input, cmd = m.questions[m.focus].input.Update(msg)

	return m, cmd
}

func (m promptModel) View() string {
	if m.done || m.aborted {
		return ""
	}

	var b strings.Builder

	for i, q := range m.questions[:m.focus+1] {
		b.WriteString(labelStyle.Render("? " + q.label))
		b.WriteString("\n")

		if i < m.focus {
			b.WriteString("  " + q.input.Value() + "\n")

			continue
		}

		b.WriteString(q.input.View())
		b.WriteString("\n")
	}

	if m.err != "" {
		b.WriteString(errStyle.Render(">> " + m.err))
		b.WriteString("\n")
	}

	return b.String()
}

// Prompt asks for whichever of the answers in a are empty and returns the
// completed answers. Both answers are guaranteed non-empty on success.
func Prompt(ctx context.Context, in io.Reader, out io.Writer, a Answers) (Answers, error) {
	m := newPromptModel(a)
	if len(m.questions) == 0 {
		return m.answers, nil
	}

	final, err := tea.NewProgram(
		m,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	).Run()
	if err != nil {
		return Answers{}, fmt.Errorf("running prompt: %w", err)
	}

	result, ok := final.(promptModel)
	if !ok || !result.done {
		return Answers{}, ErrAborted
	}

	return result.answers, nil
}
