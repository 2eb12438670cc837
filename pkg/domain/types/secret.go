package types

// Secret holds a credential value such as a password. It is redacted by the
// logger configuration, and String never reveals the raw value.
type Secret string

// String returns a masked representation
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}

// Unsafe returns the raw secret value. Only transport code should call it.
func (s Secret) Unsafe() string {
	return string(s)
}

// IsEmpty reports whether no secret was provided
func (s Secret) IsEmpty() bool {
	return s == ""
}
