package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/starford/pomodoro/internal/models"
)

var modeColors = map[models.Mode]lipgloss.Color{
	models.ModeWork:       lipgloss.Color("#E5484D"),
	models.ModeShortBreak: lipgloss.Color("#30A46C"),
	models.ModeLongBreak:  lipgloss.Color("#3E63DD"),
}

var modeLabels = map[models.Mode]string{
	models.ModeWork:       "Focus Time",
	models.ModeShortBreak: "Short Break",
	models.ModeLongBreak:  "Long Break",
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 4).
			MarginTop(1)

	clockStyle = lipgloss.NewStyle().Bold(true)

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0A0A0"))

	toastTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F7DC6F"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			MarginTop(1)
)

func modeStyle(mode models.Mode) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(modeColors[mode]).Bold(true)
}
