// Command dopplerspeed estimates a pass-by vehicle's speed from a mono
// WAV recording of its Doppler-shifted engine or tyre noise.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/wunderwelt/dopplerspeed/internal/config"
	"github.com/wunderwelt/dopplerspeed/internal/debugcsv"
	"github.com/wunderwelt/dopplerspeed/internal/doppler"
	"github.com/wunderwelt/dopplerspeed/internal/plotting"
	"github.com/wunderwelt/dopplerspeed/internal/stft"
	"github.com/wunderwelt/dopplerspeed/internal/version"
	"github.com/wunderwelt/dopplerspeed/internal/wavio"
)

type paramFlags []string

func (p *paramFlags) String() string {
	return strings.Join(*p, ",")
}

func (p *paramFlags) Set(value string) error {
	*p = append(*p, value)
	return nil
}

var (
	inPath       = flag.String("in", "", "path to the input mono WAV recording (required)")
	blockSize    = flag.Int("block-size", 1024, "STFT block size in samples (must be even)")
	stepSize     = flag.Int("step-size", 512, "STFT step size in samples")
	sampleRate   = flag.Float64("sample-rate", 0, "override the WAV file's sample rate in Hz (0 keeps the file's own rate)")
	configPath   = flag.String("config", "", "path to a JSON tuning configuration file")
	debugCSVPath = flag.String("debug-csv", "", "write the averaged-spectrum debug CSV to this path")
	plotPath     = flag.String("plot", "", "render the dominant track's frequency trajectory to this PNG path")
	jsonOutput   = flag.Bool("json", false, "print the result as JSON instead of human-readable text")
	versionFlag  = flag.Bool("version", false, "print version information and exit")
	versionShort = flag.Bool("v", false, "print version information and exit (shorthand)")
	params       paramFlags
)

func init() {
	flag.Var(&params, "param", "override a tuning parameter as id=value (repeatable)")
}

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if *versionFlag || *versionShort {
		fmt.Printf("dopplerspeed v%s (git SHA: %s)\n", version.Version, version.GitSHA)
		return
	}

	if err := run(); err != nil {
		log.Fatalf("dopplerspeed: %v", err)
	}
}

func run() error {
	if *inPath == "" {
		return fmt.Errorf("-in is required")
	}

	tuning, err := config.LoadTuningConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load tuning config: %w", err)
	}
	for _, kv := range params {
		id, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("invalid -param %q, want id=value", kv)
		}
		if err := tuning.Set(id, value); err != nil {
			return fmt.Errorf("apply -param %q: %w", kv, err)
		}
	}
	if err := tuning.Validate(); err != nil {
		return fmt.Errorf("invalid tuning config: %w", err)
	}

	dec, err := wavio.Open(*inPath)
	if err != nil {
		return fmt.Errorf("open %q: %w", *inPath, err)
	}
	defer dec.Close()

	rate := *sampleRate
	if rate == 0 {
		rate = float64(dec.SampleRate())
	}

	engineCfg, err := config.EngineConfigFromTuning(rate, *stepSize, *blockSize, tuning)
	if err != nil {
		return fmt.Errorf("resolve engine config: %w", err)
	}

	samples, err := dec.ReadAll()
	if err != nil {
		return fmt.Errorf("decode %q: %w", *inPath, err)
	}

	framer := stft.NewFramer(rate, *blockSize, *stepSize)
	blocks := framer.Frame(samples)
	log.Printf("dopplerspeed v%s: framing %d blocks from %q at %.0f Hz", version.Version, len(blocks), *inPath, rate)

	var sink debugcsv.Sink = debugcsv.NoOp{}
	if *debugCSVPath != "" || engineCfg.WriteDebugCSV {
		path := *debugCSVPath
		if path == "" {
			path = "dopplerspeed-debug.csv"
		}
		opened, err := debugcsv.Open(path)
		if err != nil {
			log.Printf("warning: %v; continuing without debug CSV", err)
		} else {
			sink = opened
			defer sink.Close()
		}
	}

	engine := doppler.NewEngine(engineCfg, os.Stderr, sink)
	for _, block := range blocks {
		engine.Process(block.Spectrum, block.Timestamp)
	}
	result := engine.Finish()

	if *plotPath != "" {
		if len(result.DominatingFrequencies) == 0 {
			log.Printf("warning: no dominant trajectory to plot, skipping -plot")
		} else if err := plotting.Trajectory(*plotPath, result.DominatingFrequencies, result.SpeedEstimate); err != nil {
			log.Printf("warning: %v; continuing without plot", err)
		}
	}

	return printResult(result)
}

func printResult(result doppler.RunResult) error {
	if *jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("dominant trajectory: %d samples\n", len(result.DominatingFrequencies))
	if result.SpeedEstimate == nil {
		fmt.Println("speed estimate: none (no stable approach/leave pair found)")
		return nil
	}
	fmt.Printf("speed estimate: %.1f km/h (begin %.3fs, duration %.3fs)\n",
		result.SpeedEstimate.SpeedKMH,
		result.SpeedEstimate.Timestamp.Seconds64(),
		result.SpeedEstimate.DurationSec,
	)
	return nil
}
