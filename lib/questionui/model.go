// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package questionui

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Prompt is the question as shown to the user.
type Prompt struct {
	ID            uint32
	Text          string
	Options       []string
	DefaultOption string

	// Device is set for disk-unlock questions.
	Device  string
	Label   string
	Attempt uint8

	// PasswordOption is the option that needs a passphrase, usually
	// "decrypt". Empty for generic questions.
	PasswordOption string
}

// Result is what the user chose.
type Result struct {
	Option    string
	Password  string
	Cancelled bool
}

type stage int

const (
	stageChoose stage = iota
	stageText
	stagePassword
	stageDone
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	detailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	optionStyle   = lipgloss.NewStyle()
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// Model is the bubbletea model of the prompt.
type Model struct {
	prompt Prompt
	keys   KeyMap
	stage  stage
	cursor int
	input  textinput.Model
	result Result
}

// NewModel returns a model for prompt with the default option
// preselected.
func NewModel(prompt Prompt) Model {
	input := textinput.New()
	input.Prompt = "> "

	model := Model{prompt: prompt, keys: DefaultKeyMap, input: input}
	if index := slices.Index(prompt.Options, prompt.DefaultOption); index >= 0 {
		model.cursor = index
	}
	if len(prompt.Options) == 0 {
		model.stage = stageText
		model.input.Focus()
	}
	return model
}

// Result returns the outcome once the program has quit.
func (model Model) Result() Result { return model.result }

func (model Model) Init() tea.Cmd {
	if model.stage == stageText {
		return textinput.Blink
	}
	return nil
}

func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	keyMessage, isKey := message.(tea.KeyMsg)
	if isKey && key.Matches(keyMessage, model.keys.Cancel) {
		model.result = Result{Cancelled: true}
		model.stage = stageDone
		return model, tea.Quit
	}

	switch model.stage {
	case stageChoose:
		if !isKey {
			return model, nil
		}
		switch {
		case key.Matches(keyMessage, model.keys.Up):
			if model.cursor > 0 {
				model.cursor--
			}
		case key.Matches(keyMessage, model.keys.Down):
			if model.cursor < len(model.prompt.Options)-1 {
				model.cursor++
			}
		case key.Matches(keyMessage, model.keys.Select):
			chosen := model.prompt.Options[model.cursor]
			model.result.Option = chosen
			if chosen == model.prompt.PasswordOption && chosen != "" {
				model.stage = stagePassword
				model.input.EchoMode = textinput.EchoPassword
				model.input.EchoCharacter = '•'
				model.input.Placeholder = "passphrase"
				return model, model.input.Focus()
			}
			model.stage = stageDone
			return model, tea.Quit
		}
		return model, nil

	case stageText, stagePassword:
		if isKey && key.Matches(keyMessage, model.keys.Select) {
			value := model.input.Value()
			if value == "" {
				return model, nil
			}
			if model.stage == stageText {
				model.result.Option = value
			} else {
				model.result.Password = value
			}
			model.stage = stageDone
			return model, tea.Quit
		}
		var command tea.Cmd
		model.input, command = model.input.Update(message)
		return model, command
	}
	return model, nil
}

func (model Model) View() string {
	if model.stage == stageDone {
		return ""
	}

	var builder strings.Builder
	builder.WriteString(titleStyle.Render(model.prompt.Text))
	builder.WriteString("\n")
	if model.prompt.Device != "" {
		detail := model.prompt.Device
		if model.prompt.Label != "" {
			detail += " " + model.prompt.Label
		}
		builder.WriteString(detailStyle.Render(detail))
		builder.WriteString("\n")
		if model.prompt.Attempt > 1 {
			builder.WriteString(warningStyle.Render(fmt.Sprintf("The passphrase was not accepted (attempt %d).", model.prompt.Attempt)))
			builder.WriteString("\n")
		}
	}
	builder.WriteString("\n")

	switch model.stage {
	case stageChoose:
		for index, option := range model.prompt.Options {
			label := option
			if option == model.prompt.DefaultOption {
				label += " (default)"
			}
			if index == model.cursor {
				builder.WriteString(selectedStyle.Render("› " + label))
			} else {
				builder.WriteString(optionStyle.Render("  " + label))
			}
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
		builder.WriteString(helpStyle.Render("↑/↓ move • enter answer • esc cancel"))
	case stageText, stagePassword:
		builder.WriteString(model.input.View())
		builder.WriteString("\n\n")
		builder.WriteString(helpStyle.Render("enter answer • esc cancel"))
	}
	builder.WriteString("\n")
	return builder.String()
}

// Run shows prompt on the given terminal streams and blocks until the
// user answers or cancels.
func Run(prompt Prompt, input io.Reader, output io.Writer) (Result, error) {
	program := tea.NewProgram(NewModel(prompt), tea.WithInput(input), tea.WithOutput(output))
	final, err := program.Run()
	if err != nil {
		return Result{}, fmt.Errorf("running prompt: %w", err)
	}
	return final.(Model).Result(), nil
}
