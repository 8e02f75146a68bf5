package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/zboralski/orbisloader/internal/oelf"
	"github.com/zboralski/orbisloader/internal/ostream"
	"github.com/zboralski/orbisloader/internal/selfelf"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(20)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Parse a single fake SELF or bare OELF and print its structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args[0])
		},
	}
	return cmd
}

func runInspect(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %q: %w", path, err)
	}
	defer f.Close()

	magic := make([]byte, 4)
	if _, err := f.ReadAt(magic, 0); err != nil {
		return fmt.Errorf("reading magic: %w", err)
	}

	var buf []byte
	switch {
	case matches(magic, selfelf.Magic[:]):
		buf, err = selfelf.Reconstruct(ostream.NewFileStream(f))
		if err != nil {
			return fmt.Errorf("reconstructing fake SELF: %w", err)
		}
		fmt.Println(headerStyle.Render("fake SELF -> reconstructed OELF"))
	case matches(magic, oelf.Magic[:]):
		buf, err = os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %q: %w", path, err)
		}
		fmt.Println(headerStyle.Render("bare OELF"))
	default:
		return fmt.Errorf("%q is neither a fake SELF nor an OELF", path)
	}

	p, err := oelf.Parse(buf)
	if err != nil {
		return fmt.Errorf("parsing OELF: %w", err)
	}

	row := func(k string, v any) {
		fmt.Printf("  %s %v\n", keyStyle.Render(k), v)
	}
	row("type", fmt.Sprintf("0x%x", p.Header.Type))
	row("entry", fmt.Sprintf("0x%x", p.Header.Entry))
	row("mapped_size", p.MappedSize)
	row("load_addr_begin", fmt.Sprintf("0x%x", p.LoadAddrBegin))
	row("load_addr_end", fmt.Sprintf("0x%x", p.LoadAddrEnd))
	row("symbols", len(p.SymTab))
	row("rela", len(p.Rela))
	row("jmprel", len(p.JmpRel))
	row("needed_files", p.NeededFiles)

	fmt.Println(headerStyle.Render("export modules"))
	for _, m := range p.ExportModules {
		row(m.Name, fmt.Sprintf("id=%d minor=%d major=%d", m.ID(), m.VersionMinor(), m.VersionMajor()))
	}
	fmt.Println(headerStyle.Render("import modules"))
	for _, m := range p.ImportModules {
		row(m.Name, fmt.Sprintf("id=%d", m.ID()))
	}
	fmt.Println(headerStyle.Render("export libraries"))
	for _, l := range p.ExportLibs {
		row(l.Name, fmt.Sprintf("id=%d version=%d", l.ID(), l.Version()))
	}
	fmt.Println(headerStyle.Render("import libraries"))
	for _, l := range p.ImportLibs {
		row(l.Name, fmt.Sprintf("id=%d version=%d", l.ID(), l.Version()))
	}

	fmt.Println(okStyle.Render("parsed ok"))
	return nil
}

func matches(got, want []byte) bool {
	if len(got) < len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
