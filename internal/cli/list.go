package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/anvilworks/anvil/internal/workspace"
)

// Represents the 'anvil list' command.
type ListCmd struct{}

// Executes the list command, printing every package found in the source
// space with its path and dependencies.
func (c *ListCmd) Run(ctx context.Context) error {
	wctx, err := loadWorkspace()
	if err != nil {
		return err
	}

	pkgs, err := workspace.Scan(wctx.SourceSpace)
	if err != nil {
		return err
	}

	for _, pkg := range pkgs {
		line := fmt.Sprintf("%s\t%s", pkg.Name, pkg.Path)
		if len(pkg.Depends) > 0 {
			line += "\t(depends: " + strings.Join(pkg.Depends, ", ") + ")"
		}
		fmt.Println(line)
	}
	return nil
}
