package python

import (
	"context"
	"fmt"
	"strings"
)

// One-line script that reports the interpreter's prefix-relative library
// directory, used to detect the platform's install-directory convention.
const installDirProbe = `import sysconfig; print(sysconfig.get_path("purelib", vars={"base": "", "platbase": ""}))`

// Returns the prefix-relative directory setup.py installs libraries into,
// in the interpreter's versioned form.
//
// On Debian-family platforms the convention embeds a "dist-packages"
// segment; everywhere else it is "site-packages". The probe only decides
// which convention applies; the returned path is always constructed from
// the probed interpreter version so later stages can reason about both the
// produced and the expected layout. When the probe fails the generic
// site-packages form is assumed, which disables the Debian rename stage.
func installDir(ctx context.Context, interp Interpreter, run runFunc) string {
	site := fmt.Sprintf("lib/python%d.%d/site-packages", interp.Major, interp.Minor)

	out, err := run(ctx, interp.Exec, "-c", installDirProbe)
	if err != nil {
		return site
	}

	if strings.Contains(string(out), "dist-packages") {
		return fmt.Sprintf("lib/python%d.%d/dist-packages", interp.Major, interp.Minor)
	}
	return site
}
