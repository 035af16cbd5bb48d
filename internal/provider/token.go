package provider

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"

	"calnorm/internal/models"
)

// TokenFile returns the token file name of an account.
func TokenFile(dir string, p models.Provider, account string) string {
	return filepath.Join(dir, fmt.Sprintf("token-%s-%s.json", p, account))
}

// SaveToken saves a token to a file path.
func SaveToken(path string, token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	return nil
}

// LoadToken retrieves a token from a local file.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(data, tok); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", path, err)
	}
	return tok, nil
}

// TokenAccounts lists the accounts that have a token file for p in dir.
func TokenAccounts(dir string, p models.Provider) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	prefix := fmt.Sprintf("token-%s-", p)
	var accounts []string
	for _, file := range files {
		name := file.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".json") {
			accounts = append(accounts, strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json"))
		}
	}
	return accounts, nil
}
