package report

import (
	"github.com/fatih/color"

	"github.com/roksva123/kinerja-planner/internal/model"
)

var (
	Bold   = color.New(color.Bold).SprintFunc()
	Dim    = color.New(color.Faint).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	Cyan   = color.New(color.FgCyan).SprintFunc()
)

// Classification colors an already padded cell by its bucket.
func Classification(c model.Classification, cell string) string {
	switch c {
	case model.Overallocated:
		return Red(cell)
	case model.Underutilized:
		return Yellow(cell)
	case model.Balanced:
		return Green(cell)
	}
	return Dim(cell)
}

func Priority(p string, cell string) string {
	switch p {
	case "high":
		return Red(cell)
	case "medium":
		return Yellow(cell)
	}
	return Cyan(cell)
}
