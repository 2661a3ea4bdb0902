//go:build integration

package itest

import (
	"errors"
	"os"
	"path/filepath"
)

// findRepoRoot walks up to the directory holding go.mod and cmd/topiccut.
func findRepoRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for wd != filepath.Dir(wd) {
		_, modErr := os.Stat(filepath.Join(wd, "go.mod"))
		_, cmdErr := os.Stat(filepath.Join(wd, "cmd", "topiccut"))
		if modErr == nil && cmdErr == nil {
			return wd, nil
		}
		wd = filepath.Dir(wd)
	}
	return "", errors.New("could not locate repo root (go.mod with cmd/topiccut)")
}
