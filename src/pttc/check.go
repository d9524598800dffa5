package pttc

import (
	"fmt"
	"os"
	"strings"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// matchLine compares a decoder output line against an expected line in
// which every '?' matches any single character.
func matchLine(expected, actual string) bool {
	if len(expected) != len(actual) {
		return false
	}
	for i := 0; i < len(expected); i++ {
		if expected[i] != '?' && expected[i] != actual[i] {
			return false
		}
	}
	return true
}

// Check compares actual decoder output against the contents of an .exp
// file. On mismatch it returns a unified diff from expected to actual.
func Check(expected, actual string) (string, bool) {
	return check("expected", "actual", expected, actual)
}

// CheckFiles runs Check on the contents of two files.
func CheckFiles(expfile, actualfile string) (string, bool, error) {
	exp, err := os.ReadFile(expfile)
	if err != nil {
		return "", false, err
	}
	act, err := os.ReadFile(actualfile)
	if err != nil {
		return "", false, err
	}
	diff, ok := check(expfile, actualfile, string(exp), string(act))
	return diff, ok, nil
}

func check(from, to, expected, actual string) (string, bool) {
	exp := strings.Split(strings.TrimRight(expected, "\n"), "\n")
	act := strings.Split(strings.TrimRight(actual, "\n"), "\n")

	ok := len(exp) == len(act)
	for i := 0; ok && i < len(exp); i++ {
		ok = matchLine(exp[i], act[i])
	}
	if ok {
		return "", true
	}

	edits := myers.ComputeEdits(span.URIFromPath(from), expected, actual)
	return fmt.Sprint(gotextdiff.ToUnified(from, to, expected, edits)), false
}
