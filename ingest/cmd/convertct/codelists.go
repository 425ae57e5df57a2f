package main

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/carbocation/pfx"
)

var nciCode = regexp.MustCompile(`^C[0-9]+$`)

// codelistSet is the -codelist flag: NCI codelist codes, given one per flag
// or comma separated.
type codelistSet map[string]struct{}

func (c codelistSet) String() string {
	codes := make([]string, 0, len(c))
	for code := range c {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	return strings.Join(codes, ",")
}

func (c codelistSet) Set(value string) error {
	for _, code := range strings.Split(value, ",") {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if !nciCode.MatchString(code) {
			return pfx.Err(fmt.Sprintf("%q is not an NCI codelist code", code))
		}
		c[code] = struct{}{}
	}

	return nil
}

func (c codelistSet) add(codes ...string) {
	for _, code := range codes {
		c[code] = struct{}{}
	}
}
