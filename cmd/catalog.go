package cmd

import (
	"fmt"

	"github.com/lepinkainen/subsorter/subghz"
	"github.com/lepinkainen/subsorter/types"
	"github.com/lepinkainen/subsorter/ui"
)

// CatalogCmd lists the well-known frequencies and protocols accepted as filters
type CatalogCmd struct{}

func (cmd *CatalogCmd) Run(appCtx *types.AppContext) error {
	out := appCtx.Out()

	fmt.Fprintln(out, ui.InfoStyle.Render("Frequencies:"))
	for _, hz := range subghz.KnownFrequencies {
		fmt.Fprintf(out, "  %-12s %d\n", subghz.DisplayFrequency(hz), hz)
	}

	fmt.Fprintln(out, ui.InfoStyle.Render("Protocols:"))
	for _, protocol := range subghz.KnownProtocols {
		fmt.Fprintf(out, "  %s\n", protocol)
	}
	return nil
}
