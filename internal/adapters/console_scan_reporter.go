package adapters

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"moduleshim/internal/ports"
)

const bannerRule = "================================================================"

// ConsoleScanReporter prints scanner findings as colored banners.
type ConsoleScanReporter struct {
	mu      sync.Mutex
	out     io.Writer
	product string

	incompatibleStyle lipgloss.Style
	unknownStyle      lipgloss.Style
}

func NewConsoleScanReporter(out io.Writer, product string) *ConsoleScanReporter {
	if product == "" {
		product = "moduleshim"
	}
	return &ConsoleScanReporter{
		out:     out,
		product: product,
		incompatibleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")),
		unknownStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),
	}
}

func (r *ConsoleScanReporter) Incompatible(name string, migrationURL string) {
	lines := []string{
		bannerRule,
		fmt.Sprintf("Incompatible module detected: %s", name),
	}
	if migrationURL != "" {
		lines = append(lines,
			fmt.Sprintf("%s detected! Read how to migrate from it:", name),
			migrationURL)
	} else {
		lines = append(lines, fmt.Sprintf("Please remove the module in order to use %s.", r.product))
	}
	lines = append(lines, fmt.Sprintf("%s will abort loading.", r.product), bannerRule)
	r.write(r.incompatibleStyle, lines)
}

func (r *ConsoleScanReporter) Unknown(name string) {
	r.write(r.unknownStyle, []string{
		fmt.Sprintf("Unknown module detected: %s", name),
		fmt.Sprintf("This module may conflict with %s.", r.product),
		fmt.Sprintf("%s may not work correctly.", r.product),
	})
}

func (r *ConsoleScanReporter) write(style lipgloss.Style, lines []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(style.Render(line))
		sb.WriteString("\n")
	}
	_, _ = io.WriteString(r.out, sb.String())
}

var _ ports.ScanReporterPort = (*ConsoleScanReporter)(nil)
