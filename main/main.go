package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	plt "github.com/phil-mansfield/pyplot"

	"github.com/phil-mansfield/sphcell/engine"
	"github.com/phil-mansfield/sphcell/iact"
	"github.com/phil-mansfield/sphcell/io"
	"github.com/phil-mansfield/sphcell/space"
)

// FileGroup contains utility files for logging and writing profiles to.
type FileGroup struct {
	log, prof *os.File
}

// Close closes the files inside FileGroup.
func (fg *FileGroup) Close() {
	if fg.log != nil {
		log.SetOutput(os.Stderr)
		err := fg.log.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		err := fg.prof.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}
}

func main() {
	var (
		runStr, countStr string
		exampleConfig    string
		verbose          bool
	)
	vars := map[string]*string{
		"Run":           &runStr,
		"Count":         &countStr,
		"ExampleConfig": &exampleConfig,
	}

	flag.StringVar(
		&runStr, "Run", "",
		"Configuration file for [Run] mode, which computes densities and "+
			"smoothing lengths and then drifts the particles for 'Steps' "+
			"steps.",
	)
	flag.StringVar(
		&countStr, "Count", "",
		"Configuration file for [Count] mode, which counts the neighbours "+
			"of every particle with its input smoothing length.",
	)
	flag.StringVar(
		&exampleConfig,
		"ExampleConfig", "", "Prints an example configuration file of the "+
			"specified type to stdout. The only accepted argument is 'Run'.",
	)
	flag.BoolVar(
		&verbose, "Verbose", false,
		"Logs progress even when no 'LogFile' is given.",
	)

	flag.Parse()

	modeName, err := getModeName(vars)
	if err != nil {
		log.Fatal(err.Error())
	}

	switch modeName {
	case "Run", "Count":
		fname := runStr
		if modeName == "Count" {
			fname = countStr
		}
		wrap, err := io.ReadConfig(fname)
		if err != nil {
			log.Fatal(err.Error())
		}

		fg := setupIO(&wrap.Run)
		err = run(modeName, wrap, verbose || wrap.Run.ValidLogFile())
		fg.Close()
		if err != nil {
			log.Fatal(err.Error())
		}

	case "ExampleConfig":
		switch exampleConfig {
		case "Run":
			fmt.Println(io.ExampleConfigFile)
		default:
			log.Fatal(
				"Unrecognized 'ExampleConfig' argument. The only recognized " +
					"argument is 'Run'.",
			)
		}
	default:
		panic("Impossible")
	}
}

func getModeName(vars map[string]*string) (string, error) {
	setNames := []string{}

	for name, varPtr := range vars {
		if *varPtr != "" {
			setNames = append(setNames, name)
		}
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No flags have been set.")
	}

	if len(setNames) > 1 {
		return "", fmt.Errorf(
			"The following flags were set: %s, but sphcell "+
				"only accepts one flag at a time.",
			strings.Join(setNames, ", "),
		)
	}

	return setNames[0], nil
}

// setupIO opens the log and profile files requested by con.
func setupIO(con *io.RunConfig) *FileGroup {
	var err error
	fg := new(FileGroup)

	if con.ValidLogFile() {
		fg.log, err = os.Create(con.LogFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		log.SetOutput(fg.log)
	}

	if con.ValidProfileFile() {
		fg.prof, err = os.Create(con.ProfileFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		err = pprof.StartCPUProfile(fg.prof)
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	return fg
}

// run executes the given mode. Errors are returned so that the profile
// and log files can be closed before exiting.
func run(modeName string, wrap *io.ConfigWrapper, verbose bool) error {
	e, err := setupEngine(wrap, verbose)
	if err != nil {
		return err
	}
	runtime.GOMAXPROCS(e.Workers())

	if modeName == "Run" {
		err = runMain(wrap, e)
	} else {
		countMain(e)
	}
	if err != nil {
		return err
	}
	return writeOutput(wrap, e)
}

// setupEngine reads the input particles and builds the cell tree and
// engine around them.
func setupEngine(wrap *io.ConfigWrapper, verbose bool) (*engine.Engine, error) {
	t0 := time.Now()
	parts, err := io.ReadParticles(wrap.Run.Input)
	if err != nil {
		return nil, err
	}

	s, err := space.New(parts, wrap.Params())
	if err != nil {
		return nil, err
	}
	e, err := engine.New(s, wrap.EngineConfig(verbose))
	if err != nil {
		return nil, err
	}

	if verbose {
		log.Printf(
			"Read %d particles into %d cells and %d tasks in %.3g s.",
			len(s.Parts), len(s.Cells), len(e.Tasks), time.Since(t0).Seconds(),
		)
	}
	return e, nil
}

func runMain(wrap *io.ConfigWrapper, e *engine.Engine) error {
	t0 := time.Now()
	if err := e.Run(wrap.Run.Steps, wrap.Run.TimeStep); err != nil {
		return err
	}
	if e.Config.Log {
		log.Printf("Finished %d steps in %.3g s.",
			e.Steps, time.Since(t0).Seconds())
	}
	return nil
}

func countMain(e *engine.Engine) {
	t0 := time.Now()
	stats := e.CountNeighbors()
	if e.Config.Log {
		log.Printf("Counted %d neighbours in %.3g s.",
			stats.Interactions, time.Since(t0).Seconds())
	}
}

func writeOutput(wrap *io.ConfigWrapper, e *engine.Engine) error {
	con := &wrap.Run
	if err := io.WriteParticles(con.Output, e.Space.Parts); err != nil {
		return err
	}

	if con.ValidReport() {
		r := io.NewReport(e, wrap.Balls())
		if err := io.WriteReport(con.Report, r); err != nil {
			return err
		}
	}

	if con.ValidPlot() {
		io.PlotNeighbors(con.Plot, e, iact.NeighborNumber(e.Config.Eta))
		plt.Execute()
	}
	return nil
}
