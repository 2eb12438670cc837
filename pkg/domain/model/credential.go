package model

import (
	"strings"

	"github.com/m-mizutani/icloudpull/pkg/domain/types"
)

// Credential is the identity and secret collected before a run
type Credential struct {
	AppleID  string
	Password types.Secret `masq:"secret"`
}

// Validate returns ErrInput when either field is missing
func (c Credential) Validate() error {
	if strings.TrimSpace(c.AppleID) == "" || c.Password.IsEmpty() {
		return ErrInput
	}
	return nil
}
