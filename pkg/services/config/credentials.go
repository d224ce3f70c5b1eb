package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/ini.v1"
)

// DefaultProfile is the credentials section used when none is named.
const DefaultProfile = "DEFAULT"

var ErrNoToken = errors.New("no token stored, run login first")

// Credentials are the API host and token stored for one profile.
type Credentials struct {
	Host  string
	Token string
}

// Registry reads and writes API credentials kept in an ini file with one section per
// profile, each holding host and token keys.
type Registry interface {
	GetProfiles(ctx context.Context) ([]string, error)
	GetCredentials(ctx context.Context, profile string) (*Credentials, error)
	SaveToken(ctx context.Context, profile string, creds Credentials) error
}

type cfgRegistry struct {
	mu   sync.Mutex
	path string
	cfg  *ini.File
}

// NewRegistry opens the credentials file at path; a missing file starts empty.
func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.LooseLoad(path)
	if err != nil {
		return nil, fmt.Errorf("load credentials %s: %w", path, err)
	}
	return &cfgRegistry{path: path, cfg: cfg}, nil
}

func (cr *cfgRegistry) GetProfiles(_ context.Context) ([]string, error) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	var profiles []string
	for _, section := range cr.cfg.Sections() {
		if len(section.Keys()) > 0 {
			profiles = append(profiles, section.Name())
		}
	}
	return profiles, nil
}

func (cr *cfgRegistry) GetCredentials(_ context.Context, profile string) (*Credentials, error) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	section, err := cr.cfg.GetSection(profile)
	if err != nil {
		return nil, fmt.Errorf("profile %s not found", profile)
	}

	creds := &Credentials{
		Host:  section.Key("host").String(),
		Token: section.Key("token").String(),
	}
	if creds.Token == "" {
		return creds, ErrNoToken
	}
	return creds, nil
}

func (cr *cfgRegistry) SaveToken(_ context.Context, profile string, creds Credentials) error {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	section := cr.cfg.Section(profile)
	section.Key("host").SetValue(creds.Host)
	section.Key("token").SetValue(creds.Token)

	if err := os.MkdirAll(filepath.Dir(cr.path), 0o700); err != nil {
		return err
	}
	if err := cr.cfg.SaveTo(cr.path); err != nil {
		return fmt.Errorf("save credentials %s: %w", cr.path, err)
	}
	return os.Chmod(cr.path, 0o600)
}
