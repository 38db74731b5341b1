package config

import (
	"fmt"
	"slices"
	"strings"
)

const CurrentConfigVersion = "1"

var SupportedConfigVersions = []string{CurrentConfigVersion}

func IsSupportedConfigVersion(v string) bool {
	return slices.Contains(SupportedConfigVersions, v)
}

func SupportedConfigVersionsCSV() string {
	return strings.Join(SupportedConfigVersions, ", ")
}

func checkConfigVersion(v string) error {
	if !IsSupportedConfigVersion(v) {
		return fmt.Errorf("unsupported config_version: %q (supported: %s)", v, SupportedConfigVersionsCSV())
	}
	return nil
}
