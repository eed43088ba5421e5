package providers

import (
	"fmt"
	"time"
	"visitd/internal/structures"

	"github.com/gookit/validate"
)

type CnfValidatorInterface interface {
	Validate() error
}

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) CnfValidatorInterface {
	return &CnfValidator{conf: conf}
}

func (c *CnfValidator) Validate() error {
	v := validate.Struct(c.conf)
	if !v.Validate() {
		return v.Errors
	}

	if _, err := time.LoadLocation(c.conf.Badges.TimeZone); err != nil {
		return fmt.Errorf("badges.timeZone: %w", err)
	}
	for _, r := range c.conf.Detector.SearchRadiiKm {
		if r <= 0 {
			return fmt.Errorf("detector.searchRadiiKm: radius must be positive, got %v", r)
		}
	}
	switch c.conf.Sync.Store {
	case "redis", "sqlite":
		if c.conf.Sync.URL == "" {
			return fmt.Errorf("sync.url is required for store %q", c.conf.Sync.Store)
		}
	}
	return nil
}
