package utils

import (
	"bufio"
	"os"
	"strings"
)

// PasswordBlacklist holds passwords that are too common to accept.
type PasswordBlacklist map[string]bool

// LoadBlackList reads one password per line. Blank lines are skipped.
func LoadBlackList(filePath string) (PasswordBlacklist, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	blackList := make(PasswordBlacklist)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			blackList[line] = true
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return blackList, nil
}

// Contains is safe on a nil list.
func (b PasswordBlacklist) Contains(password string) bool {
	return b[password]
}
