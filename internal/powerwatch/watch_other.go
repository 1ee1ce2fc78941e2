//go:build !linux && !darwin

package powerwatch

import "context"

func watchPlatform(ctx context.Context, cfg Config, ch chan Event) error {
	return ErrUnsupported
}
