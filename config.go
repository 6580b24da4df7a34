package outlier

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds the architecture hyperparameters the network was
// trained with. The config file also carries training-only keys
// (dataset, learning rate, ...); those are tolerated and ignored at
// inference time.
type Config struct {
	NumFeatures            int      `toml:"num_features"`
	NumBasis               int      `toml:"num_basis"`
	NumBlocks              int      `toml:"num_blocks"`
	NumResidualAtomic      int      `toml:"num_residual_atomic"`
	NumResidualInteraction int      `toml:"num_residual_interaction"`
	NumResidualOutput      int      `toml:"num_residual_output"`
	Cutoff                 float64  `toml:"cutoff"`
	UseElectrostatic       bool     `toml:"use_electrostatic"`
	UseDispersion          bool     `toml:"use_dispersion"`
	GrimmeS6               *float64 `toml:"grimme_s6"`
	GrimmeS8               *float64 `toml:"grimme_s8"`
	GrimmeA1               *float64 `toml:"grimme_a1"`
	GrimmeA2               *float64 `toml:"grimme_a2"`
	Device                 string   `toml:"device"`
	DERType                string   `toml:"der_type"`
}

// LoadConfig reads a hyperparameter file, either TOML or the legacy
// flag-per-line format ("--key=value") the training scripts write. A
// file whose first non-blank line starts with "--" is taken as
// legacy. Values that fail to parse are errors; the architecture must
// match the fit exactly, so a half-read config is useless.
func LoadConfig(filename string) (Config, error) {
	cont, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	conf := Config{
		NumFeatures:            128,
		NumBasis:               64,
		NumBlocks:              5,
		NumResidualAtomic:      2,
		NumResidualInteraction: 3,
		NumResidualOutput:      1,
		Cutoff:                 10.0,
		UseElectrostatic:       true,
		UseDispersion:          true,
		Device:                 "cuda",
	}
	if isLegacy(cont) {
		err = parseLegacy(&conf, cont)
	} else {
		err = toml.Unmarshal(cont, &conf)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", filename, err)
	}
	return conf, nil
}

func isLegacy(cont []byte) bool {
	for _, line := range strings.Split(string(cont), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return strings.HasPrefix(line, "--")
	}
	return false
}

// parseLegacy handles the argparse @file format: one argument per
// line, "--key=value" or "--key" with the value on the next line.
func parseLegacy(conf *Config, cont []byte) error {
	scanner := bufio.NewScanner(strings.NewReader(string(cont)))
	var tokens []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			tokens = append(tokens, line)
		}
	}
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !strings.HasPrefix(tok, "--") {
			return fmt.Errorf("expected --key, got %q", tok)
		}
		key, val, found := strings.Cut(tok[2:], "=")
		if !found {
			if i+1 >= len(tokens) {
				return fmt.Errorf("missing value for --%s", key)
			}
			i++
			val = tokens[i]
		}
		if err := setKey(conf, key, val); err != nil {
			return err
		}
	}
	return nil
}

func setKey(conf *Config, key, val string) error {
	var err error
	switch key {
	case "num_features":
		conf.NumFeatures, err = strconv.Atoi(val)
	case "num_basis":
		conf.NumBasis, err = strconv.Atoi(val)
	case "num_blocks":
		conf.NumBlocks, err = strconv.Atoi(val)
	case "num_residual_atomic":
		conf.NumResidualAtomic, err = strconv.Atoi(val)
	case "num_residual_interaction":
		conf.NumResidualInteraction, err = strconv.Atoi(val)
	case "num_residual_output":
		conf.NumResidualOutput, err = strconv.Atoi(val)
	case "cutoff":
		conf.Cutoff, err = strconv.ParseFloat(val, 64)
	case "use_electrostatic":
		conf.UseElectrostatic, err = parseSwitch(val)
	case "use_dispersion":
		conf.UseDispersion, err = parseSwitch(val)
	case "grimme_s6":
		conf.GrimmeS6, err = parseOptFloat(val)
	case "grimme_s8":
		conf.GrimmeS8, err = parseOptFloat(val)
	case "grimme_a1":
		conf.GrimmeA1, err = parseOptFloat(val)
	case "grimme_a2":
		conf.GrimmeA2, err = parseOptFloat(val)
	case "device":
		conf.Device = val
	case "DER_type", "der_type":
		conf.DERType = val
	default:
		// training hyperparameter, not our business
	}
	if err != nil {
		return fmt.Errorf("key %s: bad value %q", key, val)
	}
	return nil
}

// parseSwitch reads the 0/1 toggles the training scripts use, and is
// lenient about spelled-out booleans.
func parseSwitch(val string) (bool, error) {
	switch strings.ToLower(val) {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("not a switch: %q", val)
}

func parseOptFloat(val string) (*float64, error) {
	if val == "" || strings.EqualFold(val, "none") {
		return nil, nil
	}
	v, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
