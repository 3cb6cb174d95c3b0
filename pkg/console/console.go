// Package console renders the interactive parts of rectify: the input prompt
// and colored per-entry status lines.
package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/rectifier/rectify/pkg/mirror"
)

// Printer writes styled status lines. It is safe for concurrent use.
type Printer struct {
	mu  sync.Mutex
	out io.Writer

	title      lipgloss.Style
	processing lipgloss.Style
	uploaded   lipgloss.Style
	folder     lipgloss.Style
	warn       lipgloss.Style
	failure    lipgloss.Style
	success    lipgloss.Style
}

// Ensure interface compliance.
var _ mirror.Reporter = (*Printer)(nil)

// NewPrinter returns a Printer writing to out. Colors are only emitted when
// out is a terminal that supports them.
func NewPrinter(out io.Writer) *Printer {
	r := lipgloss.NewRenderer(out)

	return &Printer{
		out:        out,
		title:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Padding(0, 1),
		processing: r.NewStyle().Foreground(lipgloss.Color("11")),
		uploaded:   r.NewStyle().Foreground(lipgloss.Color("12")),
		folder:     r.NewStyle().Foreground(lipgloss.Color("13")),
		warn:       r.NewStyle().Foreground(lipgloss.Color("208")),
		failure:    r.NewStyle().Foreground(lipgloss.Color("9")),
		success:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
	}
}

func (p *Printer) println(style lipgloss.Style, format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, _ = fmt.Fprintln(p.out, style.Render(fmt.Sprintf(format, args...)))
}

// Banner prints the program title.
func (p *Printer) Banner() {
	p.println(p.title, "RECTIFIER")
}

// ContainerCreated implements mirror.Reporter.
func (p *Printer) ContainerCreated(path, id string) {
	p.println(p.folder, "FOLDER %s -> %s", path, id)
}

// Processing implements mirror.Reporter.
func (p *Printer) Processing(path string) {
	p.println(p.processing, "RECTIFY --> %s", path)
}

// Uploaded implements mirror.Reporter.
func (p *Printer) Uploaded(path string) {
	p.println(p.uploaded, "UPLOAD %s", path)
}

// UploadFailed implements mirror.Reporter.
func (p *Printer) UploadFailed(path string, err error) {
	p.println(p.failure, "Error during upload of %s: %v", path, err)
}

// Skipped implements mirror.Reporter.
func (p *Printer) Skipped(path string, err error) {
	p.println(p.warn, "SKIP %s: %v", path, err)
}

// Success prints the final line of a completed run.
func (p *Printer) Success(summary mirror.Summary) {
	p.println(p.success, "All files [RECTIFIED, GAMED, UPLOADED].")
	p.println(p.success, "%s", summary)
}

// Failure prints the final line of a failed run.
func (p *Printer) Failure(err error) {
	p.println(p.failure, "Upload process failed: %v", err)
}
