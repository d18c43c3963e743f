package config

import (
	"errors"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/jackieclzheng/AiBuildIp/pkg/source"
)

var digestNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// ValidateDigests checks every digest definition. Mail settings are checked
// separately by ValidateMail so dry runs work without credentials.
func (c *Config) ValidateDigests() error {
	seen := map[string]bool{}
	for i := range c.Digests {
		d := &c.Digests[i]
		if err := d.Validate(); err != nil {
			return fmt.Errorf("digest %q: %w", d.Name, err)
		}
		if seen[d.Name] {
			return fmt.Errorf("digest %q: defined twice", d.Name)
		}
		seen[d.Name] = true
	}
	return nil
}

func (d *Digest) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Name, validation.Required, validation.Match(digestNamePattern)),
		validation.Field(&d.Source, validation.Required),
		validation.Field(&d.ItemsPerRun, validation.Min(0)),
		validation.Field(&d.StartIndex, validation.Min(0)),
		validation.Field(&d.Schema, validation.By(func(value any) error {
			s, _ := value.(string)
			_, err := source.ParseSchema(s)
			return err
		})),
		validation.Field(&d.Labels, validation.By(fieldKeys)),
		validation.Field(&d.Defaults, validation.By(fieldKeys)),
	)
}

func fieldKeys(value any) error {
	m, _ := value.(map[string]string)
	for k := range m {
		if _, ok := source.ParseField(k); !ok {
			return fmt.Errorf("unknown field %q", k)
		}
	}
	return nil
}

// ValidateMail checks the settings of the selected transport.
func (c *Config) ValidateMail() error {
	if err := validation.Validate(c.Transport, validation.Required, validation.In(TransportSMTP, TransportResend, TransportLog)); err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	if c.Transport == TransportLog {
		return nil
	}
	s := &c.SMTP
	if len(s.Recipients) == 0 {
		return errors.New("smtp.recipients: at least one recipient is required")
	}
	for _, r := range s.Recipients {
		if err := validation.Validate(r, is.EmailFormat); err != nil {
			return fmt.Errorf("smtp.recipients: %q: %w", r, err)
		}
	}
	switch c.Transport {
	case TransportResend:
		if err := validation.Validate(c.Resend.APIKey, validation.Required); err != nil {
			return fmt.Errorf("resend.apiKey: %w", err)
		}
		if err := validation.Validate(s.FromAddress(), validation.Required, is.EmailFormat); err != nil {
			return fmt.Errorf("smtp.from: %w", err)
		}
	case TransportSMTP:
		return validation.ValidateStruct(s,
			validation.Field(&s.Host, validation.Required),
			validation.Field(&s.Port, validation.Required, validation.Min(1), validation.Max(65535)),
			validation.Field(&s.Password, validation.When(s.Username != "", validation.Required)),
		)
	}
	return nil
}
