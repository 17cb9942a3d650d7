package exports

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/fdg312/fitgen/internal/generation"
)

const (
	customFontName = "DejaVuSans"
	coreFontName   = "Helvetica"
)

// Generator renders generated plans to PDF
type Generator struct {
	fontPath string
	now      func() time.Time
}

// NewGenerator creates a new PDF generator. fontPath points at an optional
// UTF-8 TrueType font; without it the core Helvetica font is used.
func NewGenerator(fontPath string) *Generator {
	return &Generator{fontPath: fontPath, now: time.Now}
}

// page wraps gofpdf with the font and text translation chosen for this document.
type page struct {
	pdf  *gofpdf.Fpdf
	font string
	tr   func(string) string
}

func (g *Generator) newPage() *page {
	skipCustomFont := os.Getenv("SKIP_CUSTOM_FONT") == "1"
	if g.fontPath != "" && !skipCustomFont {
		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.AddUTF8Font(customFontName, "", g.fontPath)
		if !pdf.Err() {
			pdf.SetMargins(15, 15, 15)
			pdf.AddPage()
			return &page{pdf: pdf, font: customFontName, tr: func(s string) string { return s }}
		}
	}

	// Font loading failed or skipped, use Helvetica
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	return &page{pdf: pdf, font: coreFontName, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (p *page) heading(text string, size float64) {
	p.pdf.SetFont(p.font, "", size)
	p.pdf.MultiCell(0, size*0.5, p.tr(text), "", "L", false)
	p.pdf.Ln(2)
}

func (p *page) line(text string) {
	p.pdf.SetFont(p.font, "", 10)
	p.pdf.MultiCell(0, 5, p.tr(text), "", "L", false)
}

func (p *page) labelled(label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	p.line(label + ": " + value)
}

func (p *page) output() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) header(p *page, title string) {
	p.heading(title, 18)
	p.pdf.SetFont(p.font, "", 9)
	p.pdf.Cell(0, 5, p.tr("Generated "+g.now().UTC().Format("2006-01-02 15:04 MST")))
	p.pdf.Ln(10)
}

// MealPlan renders a meal plan, one section per day in plan order.
func (g *Generator) MealPlan(title string, plan generation.WeeklyMealPlan) ([]byte, error) {
	p := g.newPage()
	g.header(p, title)

	for _, day := range plan {
		p.heading(day.Day, 13)
		for _, meal := range day.Meals {
			p.labelled(meal.Type, meal.Description)
		}
		p.pdf.Ln(4)
	}

	return p.output()
}

// WorkoutPlan renders a workout as a table followed by per-exercise instructions.
func (g *Generator) WorkoutPlan(title string, plan generation.WorkoutPlan) ([]byte, error) {
	p := g.newPage()
	g.header(p, title)

	p.labelled("Workout type", plan.WorkoutType)
	p.labelled("Total duration", plan.TotalDuration)
	if plan.TotalExercises > 0 {
		p.labelled("Total exercises", fmt.Sprint(int(plan.TotalExercises)))
	}
	p.pdf.Ln(4)

	rows := make([][]string, 0, len(plan.Exercises))
	for _, ex := range plan.Exercises {
		rows = append(rows, []string{ex.Name, fmt.Sprint(int(ex.Sets)), ex.Reps, ex.Rest, ex.Muscle})
	}
	p.table([]string{"Exercise", "Sets", "Reps", "Rest", "Muscle"}, []float64{60, 15, 30, 30, 45}, rows)

	for _, ex := range plan.Exercises {
		if len(ex.Instructions) == 0 {
			continue
		}
		p.pdf.Ln(4)
		p.heading(ex.Name, 11)
		for i, step := range ex.Instructions {
			p.line(fmt.Sprintf("%d. %s", i+1, step))
		}
	}

	return p.output()
}

// WorkoutSplit renders a weekly split, one table per training day.
func (g *Generator) WorkoutSplit(title string, split generation.WorkoutSplit) ([]byte, error) {
	p := g.newPage()
	g.header(p, title)

	p.labelled("Split", split.SplitName)
	p.labelled("Goal", split.Goal)
	p.labelled("Experience", split.Experience)
	p.labelled("Location", split.Location)
	p.labelled("Total duration", split.TotalDuration)
	p.pdf.Ln(4)

	for _, day := range split.Days {
		dayTitle := day.Day
		if day.Focus != "" {
			dayTitle += " - " + day.Focus
		}
		p.heading(dayTitle, 13)
		p.labelled("Duration", day.Duration)

		if len(day.Exercises) == 0 {
			p.line("Rest day")
			p.pdf.Ln(4)
			continue
		}

		rows := make([][]string, 0, len(day.Exercises))
		for _, ex := range day.Exercises {
			rows = append(rows, []string{ex.Name, fmt.Sprint(int(ex.Sets)), ex.Reps, ex.Rest, ex.MuscleGroup})
		}
		p.table([]string{"Exercise", "Sets", "Reps", "Rest", "Muscle group"}, []float64{60, 15, 30, 30, 45}, rows)
		p.pdf.Ln(6)
	}

	return p.output()
}

func (p *page) table(header []string, widths []float64, rows [][]string) {
	p.pdf.SetFont(p.font, "", 9)
	for i, h := range header {
		p.pdf.CellFormat(widths[i], 6, p.tr(h), "1", 0, "C", false, 0, "")
	}
	p.pdf.Ln(-1)

	p.pdf.SetFont(p.font, "", 8)
	for _, row := range rows {
		for i, cell := range row {
			p.pdf.CellFormat(widths[i], 6, p.tr(truncate(cell, 40)), "1", 0, "L", false, 0, "")
		}
		p.pdf.Ln(-1)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
