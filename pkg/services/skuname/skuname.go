// Package skuname extracts family and generation information from VM
// size names. All functions are pure text transforms and total; they
// run inside the scoring loop across thousands of catalog entries.
package skuname

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	trailingVersion = regexp.MustCompile(`_v(\d+)$`)
	embeddedVersion = regexp.MustCompile(`_v(\d+)_`)
	inlineVersion   = regexp.MustCompile(`(?i)[a-z]v(\d+)$`)
	legacyPrefix    = regexp.MustCompile(`^Standard_(DS|D[1-9]|A\d|B\d+[ms]*|F\d+s?)$`)
	anyVersion      = regexp.MustCompile(`v(\d+)`)
	familyPrefix    = regexp.MustCompile(`^Standard_([A-Z]+)`)
)

// twoLetterFamilies are the size families whose code is two letters
// (confidential, GPU, and HPC subfamilies).
var twoLetterFamilies = map[string]struct{}{
	"DC": {}, "EC": {}, "NC": {}, "ND": {}, "NV": {},
	"HB": {}, "HC": {}, "HX": {}, "FX": {}, "EB": {},
}

// Generation returns the hardware generation label of a size name,
// e.g. "v5". Legacy names that predate the versioning convention map
// to "v1"; this is the deliberate default, not an error.
func Generation(name string) string {
	if m := trailingVersion.FindStringSubmatch(name); m != nil {
		return "v" + m[1]
	}
	if m := embeddedVersion.FindStringSubmatch(name); m != nil {
		return "v" + m[1]
	}
	if m := inlineVersion.FindStringSubmatch(name); m != nil {
		return "v" + m[1]
	}
	if legacyPrefix.MatchString(name) {
		return "v1"
	}
	if m := anyVersion.FindStringSubmatch(name); m != nil {
		return "v" + m[1]
	}
	return "v1"
}

// Family returns the size family code, e.g. "D" for Standard_D4s_v5
// or "NC" for Standard_NC24ads_A100_v4. Unrecognized shapes yield "".
func Family(name string) string {
	m := familyPrefix.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	letters := m[1]
	if len(letters) >= 2 {
		if _, ok := twoLetterFamilies[letters[:2]]; ok {
			return letters[:2]
		}
	}
	if len(letters) >= 1 {
		return letters[:1]
	}
	return ""
}

// VersionNumber returns the numeric generation of either a raw size
// name or a generation label. Comma-joined multi-value labels (boot
// mode indicators like "V1,V2") yield the maximum value. Defaults to 1.
func VersionNumber(input string) int {
	if strings.HasPrefix(input, "Standard_") {
		input = Generation(input)
	}
	max := 0
	for _, m := range anyVersion.FindAllStringSubmatch(strings.ToLower(input), -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > max {
			max = n
		}
	}
	if max == 0 {
		return 1
	}
	return max
}
