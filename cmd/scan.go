package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/go-git/go-billy/v5/osfs"

	"github.com/lepinkainen/subsorter/subghz"
	"github.com/lepinkainen/subsorter/types"
	"github.com/lepinkainen/subsorter/ui"
)

// ScanCmd shows what sort would do without touching any file
type ScanCmd struct {
	Source string `arg:"" name:"source" help:"Folder containing .sub captures" type:"existingdir"`

	FilterFlags `embed:""`
}

func (cmd *ScanCmd) Run(appCtx *types.AppContext) error {
	out := appCtx.Out()

	filter, err := cmd.Selection()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Fprintln(out, ui.HeaderStyle.Render(fmt.Sprintf("SubGHz Sorter %s", appCtx.VersionString())))
	fmt.Fprintln(out, ui.ProcessingStyle.Render(fmt.Sprintf("🔍 Scanning %s (%s)", cmd.Source, filter)))

	scanner := subghz.NewScanner(osfs.New(cmd.Source), filter,
		subghz.WithRecursive(cmd.Recursive),
		subghz.WithScanLogger(appCtx.Log()))
	result, err := scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", cmd.Source, err)
	}

	groups := make(map[string][]subghz.SubFile)
	for _, entry := range result.Plan.Entries {
		groups[entry.DestDir] = append(groups[entry.DestDir], entry.File)
	}
	dirs := make([]string, 0, len(groups))
	for dir := range groups {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	for _, dir := range dirs {
		files := groups[dir]
		fmt.Fprintf(out, "\n📂 %s (%d file(s)):\n", dir, len(files))
		for _, file := range files {
			fmt.Fprintf(out, "  %s\n", file.Path)
		}
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(out, "%s\n", ui.WarningStyle.Render(fmt.Sprintf("⚠️  %v", warning)))
	}

	fmt.Fprintf(out, "\n%s\n", ui.InfoStyle.Render(fmt.Sprintf("%d of %d capture(s) match, %d folder(s) would be used",
		result.Count, result.Scanned, len(dirs))))
	return nil
}
