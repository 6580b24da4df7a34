package outlier

import (
	"errors"
	"fmt"
)

var ErrUnknownMode = errors.New("unknown uncertainty mode")

// Mode selects which evidential entry point of the network is used.
type Mode int

const (
	// ModeSimple and ModeLipschitz share the evidential branch; they
	// differ only in how the network was trained.
	ModeSimple Mode = iota
	ModeLipschitz
	// ModeMD uses the joint energy/dipole multivariate-t head.
	ModeMD
)

func (m Mode) String() string {
	switch m {
	case ModeSimple:
		return "simple"
	case ModeLipschitz:
		return "Lipschitz"
	case ModeMD:
		return "MD"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode maps the config file's DER_type tag onto a Mode. The
// empty tag means simple. Unknown tags are errors; silently falling
// back to a default would run the wrong head against the loaded
// weights.
func ParseMode(tag string) (Mode, error) {
	switch tag {
	case "", "simple":
		return ModeSimple, nil
	case "Lipz", "Lipschitz":
		return ModeLipschitz, nil
	case "MD":
		return ModeMD, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, tag)
}
