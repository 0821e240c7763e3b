package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"

	"github.com/lepinkainen/subsorter/subghz"
	"github.com/lepinkainen/subsorter/types"
	"github.com/lepinkainen/subsorter/ui"
)

// InspectCmd prints the parsed header of individual capture files
type InspectCmd struct {
	Files []string `arg:"" name:"files" help:"Capture files to inspect" type:"existingfile"`
}

// Run reports every file; an error is returned when any of them could not be parsed
func (cmd *InspectCmd) Run(appCtx *types.AppContext) error {
	out := appCtx.Out()

	var failed int
	for _, path := range cmd.Files {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", path, err)
		}

		file, err := subghz.ReadSubFile(osfs.New(filepath.Dir(abs)), filepath.Base(abs))
		if err != nil {
			fmt.Fprintf(out, "%s\n", ui.ErrorStyle.Render(fmt.Sprintf("❌ %s: %v", path, err)))
			failed++
			continue
		}

		fmt.Fprintf(out, "%s\n", ui.SuccessStyle.Render(fmt.Sprintf("📄 %s", path)))
		fmt.Fprintf(out, "  Frequency:   %s (%d Hz)\n", subghz.DisplayFrequency(file.Frequency), file.Frequency)
		fmt.Fprintf(out, "  Protocol:    %s\n", file.Protocol)
		if file.Preset != "" {
			fmt.Fprintf(out, "  Preset:      %s\n", file.Preset)
		}
		if file.Filetype != "" {
			fmt.Fprintf(out, "  Filetype:    %s (version %s)\n", file.Filetype, file.Version)
		}
		fmt.Fprintf(out, "  Destination: %s\n", subghz.DestinationDir(file.Frequency, file.Protocol))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) could not be parsed", failed, len(cmd.Files))
	}
	return nil
}
