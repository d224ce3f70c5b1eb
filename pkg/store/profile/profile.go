// Package profile persists the report author profile in an ini file.
package profile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aapslab/report-atlas/pkg/models/domain"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gopkg.in/ini.v1"
)

const section = "profile"

var ErrNotFound = errors.New("profile not found")

type Store interface {
	Get(ctx context.Context) (*domain.Profile, error)
	Save(ctx context.Context, p domain.Profile) error
	// UpdateLastReportNumber records n as the last issued report number. It is a no-op
	// when no profile has been saved.
	UpdateLastReportNumber(ctx context.Context, n int) error
}

type iniStore struct {
	mu       sync.Mutex
	path     string
	validate *validator.Validate
}

func NewStore(path string) Store {
	return &iniStore{path: path, validate: validator.New()}
}

func (s *iniStore) load() (*ini.File, *ini.Section, error) {
	cfg, err := ini.LooseLoad(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("load profile %s: %w", s.path, err)
	}
	sec, err := cfg.GetSection(section)
	if err != nil {
		return cfg, nil, ErrNotFound
	}
	return cfg, sec, nil
}

func (s *iniStore) Get(_ context.Context) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, sec, err := s.load()
	if err != nil {
		return nil, err
	}
	num, err := sec.Key("last_report_num").Int()
	if err != nil && sec.HasKey("last_report_num") {
		return nil, fmt.Errorf("last_report_num: %w", err)
	}
	return &domain.Profile{
		Name:             sec.Key("name").String(),
		Qualification:    domain.Qualification(sec.Key("qualification").String()),
		Specialty:        sec.Key("specialty").String(),
		City:             sec.Key("city").String(),
		LastReportNumber: num,
	}, nil
}

func (s *iniStore) Save(ctx context.Context, p domain.Profile) error {
	if err := s.validate.Struct(p); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := ini.LooseLoad(s.path)
	if err != nil {
		return fmt.Errorf("load profile %s: %w", s.path, err)
	}
	sec := cfg.Section(section)
	sec.Key("name").SetValue(p.Name)
	sec.Key("qualification").SetValue(string(p.Qualification))
	sec.Key("specialty").SetValue(p.Specialty)
	sec.Key("city").SetValue(p.City)
	sec.Key("last_report_num").SetValue(fmt.Sprint(p.LastReportNumber))

	if err := s.write(cfg); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("path", s.path).Msg("profile saved")
	return nil
}

func (s *iniStore) UpdateLastReportNumber(ctx context.Context, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, sec, err := s.load()
	if errors.Is(err, ErrNotFound) {
		zerolog.Ctx(ctx).Debug().Msg("no profile saved, report number not recorded")
		return nil
	}
	if err != nil {
		return err
	}
	sec.Key("last_report_num").SetValue(fmt.Sprint(n))
	return s.write(cfg)
}

func (s *iniStore) write(cfg *ini.File) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := cfg.SaveTo(s.path); err != nil {
		return fmt.Errorf("save profile %s: %w", s.path, err)
	}
	return nil
}
