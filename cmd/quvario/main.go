// Command quvario reads trial wavefunctions from a text file, one
// expression per line, optimizes the variational parameter of each
// under the hydrogen-like Hamiltonian, and reports the tightest energy
// bound found.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Starryblack/quVario"
)

var (
	trialfuncs = flag.String("trialfuncs", "trialfuncs.txt", "file with one trial wavefunction per line")
	configPath = flag.String("config", "", "optional YAML file overriding the defaults")
	radial     = flag.String("radial", "r", "radial coordinate symbol")
	param      = flag.String("param", "a", "variational parameter symbol")
	charge     = flag.Float64("charge", 1, "nuclear charge in units of the elementary charge")
	cutoff     = flag.Float64("cutoff", 1000, "radius standing in for infinity, in Bohr radii")
	guess      = flag.Float64("guess", 0.1, "initial value of the variational parameter")
)

func main() {
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)
	flag.Parse()

	if err := mainWithErr(); err != nil {
		log.Fatalf("%+v", err)
	}
}

// Config mirrors the command line flags for file-based runs. Values
// resolve in order: built-in defaults, then the config file, then
// flags set explicitly on the command line.
type Config struct {
	TrialFuncs string  `yaml:"trialfuncs"`
	Radial     string  `yaml:"radial"`
	Param      string  `yaml:"param"`
	Charge     float64 `yaml:"charge"`
	Cutoff     float64 `yaml:"cutoff"`
	Guess      float64 `yaml:"guess"`
}

func loadConfig() (Config, error) {
	cfg := Config{
		TrialFuncs: "trialfuncs.txt",
		Radial:     "r",
		Param:      "a",
		Charge:     1,
		Cutoff:     1000,
		Guess:      0.1,
	}
	if *configPath != "" {
		buf, err := os.ReadFile(*configPath)
		if err != nil {
			return Config{}, errors.Wrap(err, "")
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return Config{}, errors.Wrap(err, *configPath)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "trialfuncs":
			cfg.TrialFuncs = *trialfuncs
		case "radial":
			cfg.Radial = *radial
		case "param":
			cfg.Param = *param
		case "charge":
			cfg.Charge = *charge
		case "cutoff":
			cfg.Cutoff = *cutoff
		case "guess":
			cfg.Guess = *guess
		}
	})
	return cfg, nil
}

func mainWithErr() error {
	cfg, err := loadConfig()
	if err != nil {
		return errors.Wrap(err, "")
	}
	trials, err := quvario.LoadTrials(cfg.TrialFuncs)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if len(trials) == 0 {
		return errors.Errorf("no trial functions in %s", cfg.TrialFuncs)
	}

	h := quvario.NewHamiltonian(cfg.Radial)
	h.Charge = cfg.Charge
	opt := quvario.NewOptions().
		Param(cfg.Param).
		Cutoff(cfg.Cutoff).
		Guess(cfg.Guess)
	results, err := quvario.MinimizeAll(h, trials, opt)
	if err != nil {
		return errors.Wrap(err, "")
	}

	fmt.Println("In atomic units,")
	for _, res := range results {
		fmt.Printf("For psi = %s, the optimised parameter is %f. The energy upper bound is %f.\n",
			res.Source, res.Param, res.Energy)
	}
	best, err := quvario.Best(results)
	if err != nil {
		return errors.Wrap(err, "")
	}
	fmt.Printf("The overall minimum energy is %f.\n", best.Energy)
	return nil
}
