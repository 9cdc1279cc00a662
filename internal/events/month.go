package events

// Color is the display category of a month label
type Color string

const (
	ColorRed    Color = "red"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorPurple Color = "purple"
	ColorGray   Color = "gray"
)

// MonthColor maps a month label to its display color
func MonthColor(month string) Color {
	switch month {
	case MonthLuglio:
		return ColorRed
	case MonthAgosto:
		return ColorGreen
	case MonthSettembre:
		return ColorBlue
	case MonthOltre:
		return ColorPurple
	default:
		return ColorGray
	}
}

// MonthColors returns the color of every tab month
func MonthColors() map[string]Color {
	colors := make(map[string]Color, len(Months))
	for _, m := range Months {
		colors[m] = MonthColor(m)
	}
	return colors
}
