package cli

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/diwise/iot-sample-payload/pkg/devicemodel"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FF00")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
)

// Line numbers start at 1 so that they can be typed back at the prompt.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func DevicesTable(devices []devicemodel.Device) string {
	t := newTable("Line No.", "Device Name", "Device Alternate ID", "Device ID")

	for idx, d := range devices {
		t.Row(strconv.Itoa(idx+1), d.Name, d.AlternateID, d.ID)
	}

	return t.String()
}

func AssignmentsTable(assignments []devicemodel.Assignment) string {
	t := newTable("Line No.", "Object ID", "Assignment ID", "Mapping ID", "Sensors")

	for idx, a := range assignments {
		t.Row(strconv.Itoa(idx+1), a.ObjectID, a.ID, a.MappingID, strconv.Itoa(len(a.Sensors)))
	}

	return t.String()
}
