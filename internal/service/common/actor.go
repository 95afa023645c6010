//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
	"os/user"

	"github.com/oshokin/climate-alarm/internal/domain/climate"
)

// DetectActor gathers host and user information so remote toggles are attributable.
func DetectActor() (*climate.Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	return &climate.Actor{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}
