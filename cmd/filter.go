package cmd

import (
	"fmt"

	"github.com/lepinkainen/subsorter/subghz"
)

// FilterFlags select which captures take part in a run
type FilterFlags struct {
	Frequency []string `short:"f" help:"Frequency to include, in Hz or MHz (repeatable, default all)" placeholder:"433.92"`
	Protocol  []string `short:"p" help:"Protocol to include, case-insensitive (repeatable, default all)" placeholder:"Princeton"`
	Recursive bool     `short:"r" help:"Descend into subfolders of the source"`
}

// Selection converts the flags into a FilterSelection
func (f FilterFlags) Selection() (subghz.FilterSelection, error) {
	frequencies := make([]uint64, 0, len(f.Frequency))
	for _, value := range f.Frequency {
		hz, err := subghz.ParseFrequency(value)
		if err != nil {
			return subghz.FilterSelection{}, &subghz.ConfigurationError{
				Field:  "frequency",
				Reason: fmt.Sprintf("cannot use %q", value),
				Err:    err,
			}
		}
		frequencies = append(frequencies, hz)
	}
	return subghz.NewFilterSelection(frequencies, f.Protocol), nil
}
