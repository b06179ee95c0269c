package tui

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// Gauge renders a reading as a bar scaled to a fixed full-scale value.
type Gauge struct {
	bar  progress.Model
	full float64
}

// NewGauge creates a gauge where full maps to a full bar.
func NewGauge(full float64) Gauge {
	return Gauge{
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		),
		full: full,
	}
}

// Fraction returns v as a fraction of full scale, clamped to 0..1.
func (g Gauge) Fraction(v float64) float64 {
	if g.full <= 0 {
		return 0
	}
	return min(max(v/g.full, 0), 1)
}

// View renders the bar for v.
func (g Gauge) View(v float64) string {
	return lipgloss.NewStyle().MarginLeft(17).Render(g.bar.ViewAs(g.Fraction(v)))
}
