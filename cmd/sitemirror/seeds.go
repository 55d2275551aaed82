package main

import (
	"fmt"
	"regexp"

	"github.com/fwojciec/sitemirror"
)

// Run executes the seeds command.
func (c *SeedsCmd) Run(deps *Dependencies) error {
	var filter *sitemirror.URLFilter
	if len(c.Include) > 0 {
		filter = &sitemirror.URLFilter{}
		for _, pattern := range c.Include {
			re, err := regexp.Compile(pattern)
			if err != nil {
				fmt.Fprintf(deps.Stderr, "error: invalid filter pattern %q: %v\n", pattern, err)
				return err
			}
			filter.Include = append(filter.Include, re)
		}
	}

	seeds, err := deps.Sitemaps.DiscoverURLs(deps.Ctx, c.Root, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", sitemirror.ErrorMessage(err))
		return err
	}
	for _, s := range seeds {
		fmt.Fprintln(deps.Stdout, s)
	}
	return nil
}
