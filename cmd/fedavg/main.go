// fedavg: federated averaging of regression weights under CKKS encryption.
//
// Usage:
//
//	fedavg <command> [flags] [arguments]
//
// Commands:
//
//	keygen     Generate the context and the key pair of the work directory
//	encrypt    Encrypt weight files under the public key of the work directory
//	aggregate  Sum, average or weighted-average encrypted contributions
//	decrypt    Decrypt an aggregate into global_weights.csv
//	run        Run keygen (if needed), encrypt, aggregate and decrypt in one go
//
// The work directory holds keys/, ciphertexts/ and global/. Weight files are
// CSV tables with Feature and Coefficient columns, or headerless lists of
// values ending with the intercept.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Pro7ech/fedavg/fedavg"
	"github.com/Pro7ech/fedavg/he/hefloat"
)

func main() {

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	command, args := os.Args[1], os.Args[2:]

	var err error

	switch command {
	case "keygen":
		err = handleKeyGen(args)
	case "encrypt":
		err = handleEncrypt(args)
	case "aggregate":
		err = handleAggregate(args)
	case "decrypt":
		err = handleDecrypt(args)
	case "run":
		err = handleRun(args)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "fedavg: unknown command %q\n\n", command)
		printUsage()
		os.Exit(2)
	}

	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "fedavg %s: %v\n", command, err)
		}
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `fedavg: federated averaging of regression weights under CKKS encryption

Usage:
  fedavg <command> [flags] [arguments]

Commands:
  keygen    [flags] [names.csv]      generate context.bin, public.key and secret.key
  encrypt   [flags] party.csv...     write ciphertexts/<party>.ct
  aggregate [flags] [party.ct...]    write global/aggregate.ct (default: every ciphertexts/*.ct)
  decrypt   [flags] [aggregate.ct]   write global/global_weights.csv
  run       [flags] party.csv...     keygen if needed, encrypt, aggregate and decrypt

Run 'fedavg <command> -h' for the flags of a command.`)
}

// options are the flags shared by the commands.
type options struct {
	fs *flag.FlagSet

	dir      string
	config   string
	params   string
	seed     string
	schema   string
	workers  int
	count    float64
	sum      bool
	weighted bool
	verify   bool
	verbose  bool
}

func newOptions(name string) *options {

	o := &options{fs: flag.NewFlagSet(name, flag.ContinueOnError)}

	o.fs.StringVar(&o.dir, "dir", "", "work directory (default \".\")")
	o.fs.StringVar(&o.config, "config", "", "JSON configuration file")
	o.fs.StringVar(&o.params, "params", "", "JSON file of hefloat.ParametersLiteral replacing the security derived parameters")
	o.fs.StringVar(&o.seed, "seed", "", "hex master seed making keys and ciphertexts reproducible (testing only)")
	o.fs.IntVar(&o.workers, "workers", 0, "number of concurrent encryptions (default: number of CPUs)")
	o.fs.BoolVar(&o.verbose, "v", false, "log at debug level")

	return o
}

func (o *options) withMode() *options {
	o.fs.BoolVar(&o.sum, "sum", false, "sum the contributions instead of averaging them")
	o.fs.BoolVar(&o.weighted, "weighted", false, "weight the contributions by their sample count")
	return o
}

func (o *options) withVerify() *options {
	o.fs.BoolVar(&o.verify, "verify", false, "decrypt each ciphertext after encryption and report the error")
	return o
}

func (o *options) withCount() *options {
	o.fs.Float64Var(&o.count, "count", 0, "number of training samples of the contributions, stored in <party>.ct.count.txt")
	return o
}

func (o *options) withSchema() *options {
	o.fs.StringVar(&o.schema, "schema", "", "weight file whose Feature column names the decrypted values")
	return o
}

// parse parses args and returns the configuration and the logger of the command.
func (o *options) parse(args []string) (cfg fedavg.Config, logger *slog.Logger, err error) {

	if err = o.fs.Parse(args); err != nil {
		return
	}

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if o.config != "" {
		if cfg, err = fedavg.LoadConfig(o.config); err != nil {
			return
		}
	} else {
		cfg = fedavg.DefaultConfig()
	}

	set := map[string]bool{}
	o.fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["dir"] {
		cfg.WorkDir = o.dir
	}

	if set["seed"] {
		cfg.Seed = o.seed
	}

	if set["workers"] {
		cfg.Workers = o.workers
	}

	if set["verify"] {
		cfg.Verify = o.verify
	}

	switch {
	case o.sum && o.weighted:
		return cfg, logger, fmt.Errorf("-sum and -weighted are exclusive")
	case o.sum:
		cfg.Mode = fedavg.Sum
	case o.weighted:
		cfg.Mode = fedavg.Weighted
	}

	if o.params != "" {
		if cfg.Parameters, err = readParametersLiteral(o.params); err != nil {
			return
		}
	}

	return cfg, logger, cfg.Validate()
}

func readParametersLiteral(path string) (*hefloat.ParametersLiteral, error) {

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read parameters: %w", err)
	}

	pl := new(hefloat.ParametersLiteral)
	if err = json.Unmarshal(data, pl); err != nil {
		return nil, fmt.Errorf("cannot read parameters %s: %w", path, err)
	}

	return pl, nil
}

// readSchema returns the feature schema of the weight file at path, or the
// empty schema if path is empty.
func readSchema(path string) (fedavg.FeatureSchema, error) {

	if path == "" {
		return fedavg.FeatureSchema{}, nil
	}

	c, err := fedavg.CSVFile{Path: path}.Load()
	if err != nil {
		return fedavg.FeatureSchema{}, err
	}

	return c.Schema, nil
}

// sources returns the weight files of paths. Without -count, the count of a
// file is read from the sibling file <name>.count.txt if it exists.
func (o *options) sources(paths []string) (sources []fedavg.VectorSource, err error) {

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no weight file given", fedavg.ErrNoInput)
	}

	for _, path := range paths {

		if _, err = os.Stat(path); err != nil {
			return nil, err
		}

		f := fedavg.CSVFile{Path: path, Count: o.count}

		if f.Count == 0 {
			countPath := strings.TrimSuffix(path, filepath.Ext(path)) + fedavg.CountSuffix
			if f.Count, err = fedavg.LoadCount(countPath); err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					return nil, err
				}
				f.Count, err = 0, nil
			}
		}

		sources = append(sources, f)
	}

	return
}

func handleKeyGen(args []string) (err error) {

	o := newOptions("keygen")

	cfg, logger, err := o.parse(args)
	if err != nil {
		return
	}

	if o.fs.NArg() > 1 {
		return fmt.Errorf("expected at most one weight file, got %d", o.fs.NArg())
	}

	schema, err := readSchema(o.fs.Arg(0))
	if err != nil {
		return
	}

	p, err := fedavg.NewPipeline(cfg, logger)
	if err != nil {
		return
	}

	_, err = p.KeyGen(schema)
	return
}

func handleEncrypt(args []string) (err error) {

	o := newOptions("encrypt").withVerify().withCount()

	cfg, logger, err := o.parse(args)
	if err != nil {
		return
	}

	sources, err := o.sources(o.fs.Args())
	if err != nil {
		return
	}

	p, err := fedavg.NewPipeline(cfg, logger)
	if err != nil {
		return
	}

	results, err := p.Encrypt(sources...)
	if err != nil {
		return
	}

	for _, r := range results {
		fmt.Println(r.Path)
		if r.Report != nil {
			fmt.Printf("%s: %s\n%s", r.Name, r.Report.String(), r.Report.Precision.String())
		}
	}

	return
}

func handleAggregate(args []string) (err error) {

	o := newOptions("aggregate").withMode()

	cfg, logger, err := o.parse(args)
	if err != nil {
		return
	}

	paths := o.fs.Args()

	if len(paths) == 0 {
		if paths, err = filepath.Glob(filepath.Join(cfg.CiphertextDir(), "*.ct")); err != nil {
			return
		}
		sort.Strings(paths)
		logger.Debug("found ciphertexts", "dir", cfg.CiphertextDir(), "count", len(paths))
	}

	if len(paths) == 0 {
		return fmt.Errorf("%w: no ciphertext in %s", fedavg.ErrNoInput, cfg.CiphertextDir())
	}

	p, err := fedavg.NewPipeline(cfg, logger)
	if err != nil {
		return
	}

	path, err := p.Aggregate(paths...)
	if err != nil {
		return
	}

	fmt.Println(path)

	return
}

func handleDecrypt(args []string) (err error) {

	o := newOptions("decrypt").withSchema()

	cfg, logger, err := o.parse(args)
	if err != nil {
		return
	}

	if o.fs.NArg() > 1 {
		return fmt.Errorf("expected at most one ciphertext, got %d", o.fs.NArg())
	}

	path := o.fs.Arg(0)
	if path == "" {
		path = cfg.AggregatePath()
	}

	schema, err := readSchema(o.schema)
	if err != nil {
		return
	}

	p, err := fedavg.NewPipeline(cfg, logger)
	if err != nil {
		return
	}

	res, err := p.Decrypt(path, schema)
	if err != nil {
		return
	}

	printResult(res)

	return
}

func handleRun(args []string) (err error) {

	o := newOptions("run").withMode().withVerify().withCount()

	cfg, logger, err := o.parse(args)
	if err != nil {
		return
	}

	sources, err := o.sources(o.fs.Args())
	if err != nil {
		return
	}

	p, err := fedavg.NewPipeline(cfg, logger)
	if err != nil {
		return
	}

	res, err := p.Run(sources...)
	if err != nil {
		return
	}

	printResult(res)

	return
}

func printResult(res fedavg.Result) {

	if res.Named != nil {
		for _, nw := range res.Named {
			fmt.Printf("%-20s % .8f\n", nw.Feature, nw.Coefficient)
		}
	} else {
		for i, v := range res.Weights {
			fmt.Printf("%-6d % .8f\n", i, v)
		}
	}

	fmt.Println(res.WeightsPath)

	if res.NamedWeightsPath != "" {
		fmt.Println(res.NamedWeightsPath)
	}
}
