package testutil

import (
	"fmt"
	"strings"
	"testing"
	"text/tabwriter"

	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/datawire/pylock/pkg/pylock"
)

func DumpInstallsFull(installs []pylock.Install) string {
	var spewConfig = spew.ConfigState{
		Indent:                  "  ",
		DisableMethods:          true,
		DisableCapacities:       true,
		DisablePointerAddresses: true,
		SortKeys:                true,
	}
	return spewConfig.Sdump(installs)
}

func DumpInstallListing(installs []pylock.Install) (str string, err error) {
	ret := new(strings.Builder)

	table := tabwriter.NewWriter(
		ret, // output
		0,   // minwidth
		1,   // tabwidth
		1,   // padding
		' ', // padchar
		0)   // flags
	for _, install := range installs {
		artifact := ""
		switch {
		case install.File != nil:
			artifact = install.File.Name
		case install.VCS != nil:
			artifact = install.VCS.Origin + "@" + install.VCS.Commit
		}
		flags := "binary"
		if install.NeedsBuild {
			flags = fmt.Sprintf("build(%d deps)", len(install.BuildDeps))
		}
		if _, err := fmt.Fprintln(table, strings.Join([]string{
			"",
			install.Package,
			install.VersionString,
			artifact,
			flags,
		}, "\t")); err != nil {
			return "", err
		}
	}
	if err := table.Flush(); err != nil {
		return "", err
	}

	return ret.String(), nil
}

func AssertEqualInstalls(t *testing.T, exp, act []pylock.Install) bool {
	t.Helper()

	// First just compare the listings, in order to "fail fast" and give more readable output.
	expStr, err := DumpInstallListing(exp)
	if err != nil {
		t.Errorf("error dumping expected install listing: %v", err)
		return false
	}
	actStr, err := DumpInstallListing(act)
	if err != nil {
		t.Errorf("error dumping actual install listing: %v", err)
		return false
	}
	if expStr != actStr {
		diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(expStr),
			B:        difflib.SplitLines(actStr),
			FromFile: "Expected",
			FromDate: "",
			ToFile:   "Actual",
			ToDate:   "",
			Context:  1,
		})
		t.Errorf("Listing diff:\n%s", diff)
		return false
	}

	// OK, that passed, now do a more comprehensive diff.
	expStr = DumpInstallsFull(exp)
	actStr = DumpInstallsFull(act)
	if expStr != actStr {
		diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(expStr),
			B:        difflib.SplitLines(actStr),
			FromFile: "Expected",
			FromDate: "",
			ToFile:   "Actual",
			ToDate:   "",
			Context:  1,
		})
		t.Errorf("Full diff:\n%s", diff)
		return false
	}

	return true
}
