// Command readoutfid prints single-shot spin readout fidelities.
//
// Usage:
//
//	readoutfid [flags]
//
// It reports the optimal readout window, the ideal comparator fidelities at
// that window and the electrical fidelity optimum over a threshold sweep.
// With -simulate it also runs a Monte Carlo readout and prints its optimum.
// The simulation draws from the ER chain model unless -trace selects the
// filtered raw-trace model.
//
// Examples:
//
//	readoutfid
//	readoutfid -snr 10 -cutoff 5e4 -thresholds 201
//	readoutfid -readout 5e-4 -simulate 2000 -seed 7
//	readoutfid -simulate 2000 -trace
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/cwbudde/algo-readout/fidelity"
	"github.com/cwbudde/algo-readout/measure/telegraph"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	tauOE, tauOG, tauR, tauIG float64
	readout                   float64
	snr, rate, cutoff         float64
	thresholds                int
	simulate                  int
	seed                      uint64
	trace                     bool
	verbose                   bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options

	fs := flag.NewFlagSet("readoutfid", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Float64Var(&o.tauOE, "tau-oe", 1e-4, "excited state tunnel-out time [s]")
	fs.Float64Var(&o.tauOG, "tau-og", 1e-2, "ground state tunnel-out time [s]")
	fs.Float64Var(&o.tauR, "tau-r", 1e-3, "excited state relaxation time [s]")
	fs.Float64Var(&o.tauIG, "tau-ig", 1e-3, "ground state tunnel-in time [s]")
	fs.Float64Var(&o.readout, "readout", 0, "readout window [s]; 0 uses the optimal window")
	fs.Float64Var(&o.snr, "snr", 5, "voltage signal-to-noise ratio")
	fs.Float64Var(&o.rate, "rate", 1e6, "sample rate [Hz]")
	fs.Float64Var(&o.cutoff, "cutoff", 1e5, "readout filter cutoff [Hz]")
	fs.IntVar(&o.thresholds, "thresholds", fidelity.DefaultThresholdNum, "number of thresholds in the sweep")
	fs.IntVar(&o.simulate, "simulate", 0, "Monte Carlo shots per state; 0 disables the simulation")
	fs.Uint64Var(&o.seed, "seed", telegraph.DefaultSeed, "simulation seed")
	fs.BoolVar(&o.trace, "trace", false, "simulate filtered raw traces instead of the ER chain")
	fs.BoolVar(&o.verbose, "v", false, "log integration warnings")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: readoutfid [flags]\n\n")
		fmt.Fprintf(stderr, "Prints optimal window, ideal and electrical readout fidelities.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return o, err
	}

	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	return o, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	logger := log.New(stderr, "readoutfid: ", 0)

	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}

		logger.Print(err)

		return 2
	}

	if err := report(o, stdout, logger); err != nil {
		logger.Print(err)
		return 1
	}

	return 0
}

func report(o options, stdout io.Writer, logger *log.Logger) error {
	window := o.readout
	if window == 0 {
		t, err := fidelity.OptimalReadTime(o.tauOE, o.tauOG, o.tauR)
		if err != nil {
			return err
		}

		window = t
	}

	stc, err := fidelity.STCFidelityAt(o.tauOE, o.tauOG, o.tauR, window)
	if err != nil {
		return err
	}

	p := fidelity.Params{
		OutTimeExcited: o.tauOE,
		InTimeGround:   o.tauIG,
		ReadoutTime:    window,
		SNR:            o.snr,
		SampleRate:     o.rate,
		FilterCutoff:   o.cutoff,
	}

	erOpts := []fidelity.EROption{fidelity.WithThresholdNum(o.thresholds)}
	if o.verbose {
		erOpts = append(erOpts, fidelity.WithLogger(logger))
	}

	er, err := fidelity.ERFidelity(p, erOpts...)
	if err != nil {
		return err
	}

	rows := [][2]string{
		{"Readout window [s]", fmt.Sprintf("%.4e", window)},
		{"STC ground", fmt.Sprintf("%.6f", stc.Ground)},
		{"STC excited", fmt.Sprintf("%.6f", stc.Excited)},
		{"STC visibility", fmt.Sprintf("%.6f", stc.Visibility())},
	}

	thr, ground, excited, vis := er.Best()
	rows = append(rows,
		[2]string{"ER threshold", fmt.Sprintf("%.4f", thr)},
		[2]string{"ER ground", fmt.Sprintf("%.6f", ground)},
		[2]string{"ER excited", fmt.Sprintf("%.6f", excited)},
		[2]string{"ER visibility", fmt.Sprintf("%.6f", vis)},
		[2]string{"ER warnings", fmt.Sprintf("%d", len(er.Warnings))},
	)

	if o.simulate > 0 {
		model := telegraph.ModelChain
		if o.trace {
			model = telegraph.ModelTrace
		}

		cfg := telegraph.ApplyOptions(p,
			telegraph.WithShots(o.simulate), telegraph.WithSeed(o.seed), telegraph.WithModel(model))

		sim, err := telegraph.Simulate(cfg, er.Thresholds)
		if err != nil {
			return err
		}

		thr, ground, excited, vis := sim.Best()
		rows = append(rows,
			[2]string{"Sim model", cfg.Model.String()},
			[2]string{"Sim threshold", fmt.Sprintf("%.4f", thr)},
			[2]string{"Sim ground", fmt.Sprintf("%.6f", ground)},
			[2]string{"Sim excited", fmt.Sprintf("%.6f", excited)},
			[2]string{"Sim visibility", fmt.Sprintf("%.6f", vis)},
		)
	}

	return printTable(stdout, rows)
}

func printTable(w io.Writer, rows [][2]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Quantity\tValue\n--------\t-----\n"); err != nil {
		return fmt.Errorf("failed to write output header: %w", err)
	}

	for _, r := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", r[0], r[1]); err != nil {
			return fmt.Errorf("failed to write output row: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	return nil
}
