package config

import "fmt"

// ValidateTLSConfig validates the TLS configuration
func (c *Config) ValidateTLSConfig() error {
	return c.Server.TLS.Validate()
}

// Validate checks the TLS configuration for consistency
func (t TLSConfig) Validate() error {
	if err := t.validateMode(); err != nil {
		return err
	}

	return t.validateMinVersion()
}

// validateMode validates the TLS mode and its associated requirements
func (t TLSConfig) validateMode() error {
	switch t.Mode {
	case "disabled":
		return nil // No validation needed for disabled mode
	case "server":
		return t.validateServerMode()
	case "mutual":
		return t.validateMutualMode()
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", t.Mode)
	}
}

// validateServerMode validates TLS configuration for server mode
func (t TLSConfig) validateServerMode() error {
	if err := t.requireCertAndKey("server mode"); err != nil {
		return err
	}

	return t.rejectDuplicateCertSources()
}

// validateMutualMode validates TLS configuration for mutual mode
func (t TLSConfig) validateMutualMode() error {
	if err := t.requireCertAndKey("mutual mode"); err != nil {
		return err
	}

	if err := t.requireCA(); err != nil {
		return err
	}

	if err := t.rejectDuplicateCertSources(); err != nil {
		return err
	}

	if err := t.rejectDuplicateCASource(); err != nil {
		return err
	}

	return t.validateClientAuthPolicy()
}

// requireCertAndKey checks that both certificate and key are provided
func (t TLSConfig) requireCertAndKey(mode string) error {
	if (t.CertFile == "" && t.CertContent == "") || (t.KeyFile == "" && t.KeyContent == "") {
		return fmt.Errorf("TLS certificate and key are required for %s (provide either files or content)", mode)
	}
	return nil
}

// requireCA checks that a CA certificate is provided for mutual TLS
func (t TLSConfig) requireCA() error {
	if t.CAFile == "" && t.CAContent == "" {
		return fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
	}
	return nil
}

// rejectDuplicateCertSources ensures no duplicate sources for cert and key
func (t TLSConfig) rejectDuplicateCertSources() error {
	if t.CertFile != "" && t.CertContent != "" {
		return fmt.Errorf("cannot specify both certFile and certContent - choose one")
	}
	if t.KeyFile != "" && t.KeyContent != "" {
		return fmt.Errorf("cannot specify both keyFile and keyContent - choose one")
	}
	return nil
}

// rejectDuplicateCASource ensures no duplicate sources for the CA certificate
func (t TLSConfig) rejectDuplicateCASource() error {
	if t.CAFile != "" && t.CAContent != "" {
		return fmt.Errorf("cannot specify both caFile and caContent - choose one")
	}
	return nil
}

// validateClientAuthPolicy validates the client authentication policy
func (t TLSConfig) validateClientAuthPolicy() error {
	switch t.ClientAuthPolicy {
	case "require", "request", "verify", "":
		return nil // Valid policies (empty defaults to require)
	default:
		return fmt.Errorf("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", t.ClientAuthPolicy)
	}
}

// validateMinVersion validates the minimum TLS version configuration
func (t TLSConfig) validateMinVersion() error {
	switch t.MinVersion {
	case "", "1.2", "1.3":
		return nil // Valid versions (empty defaults to 1.2)
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", t.MinVersion)
	}
}
